package core

import "testing"

func TestMarginClampArmsInFuture(t *testing.T) {
	cfg := testConfig(ModeFine)
	d, hw := newTestDriver(t, cfg)
	hw.Advance(100)

	for _, deadline := range []uint64{0, 49, 50, 51} {
		h, ok := d.AllocateAlarm()
		if !ok {
			t.Fatal("AllocateAlarm failed")
		}
		d.SetAlarmCallback(h, func(any) {}, nil)
		d.SetAlarm(h, deadline)

		compare, enabled := hw.Compare()
		if !enabled {
			t.Fatalf("Expected compare enabled for deadline %d", deadline)
		}
		ahead := (compare - hw.Count()) & hw.Max()
		if ahead == 0 {
			t.Errorf("Deadline %d armed at the current count %d", deadline, compare)
		}
		if uint64(ahead) < cfg.MinMargin*uint64(cfg.Divider) {
			t.Errorf("Deadline %d armed %d counts ahead, below margin", deadline, ahead)
		}
		d.Reset()
		hw.Advance(100)
	}
}

func TestSchedulerExactCompareValue(t *testing.T) {
	d, hw := newTestDriver(t, testConfig(ModeFine))
	hw.Advance(20) // tick 10

	h, _ := d.AllocateAlarm()
	d.SetAlarmCallback(h, func(any) {}, nil)
	d.SetAlarm(h, 70)

	compare, _ := hw.Compare()
	if compare != 140 {
		t.Errorf("Expected compare 140, got %d", compare)
	}

	// Wraps past the counter maximum
	d.SetAlarm(h, 130)
	compare, _ = hw.Compare()
	if compare != (20+240)&0xFF {
		t.Errorf("Expected wrapped compare %d, got %d", (20+240)&0xFF, compare)
	}
}

func TestSchedulerDisablesWhenEmpty(t *testing.T) {
	d, hw := newTestDriver(t, testConfig(ModeFine))

	w := &countingWaker{}
	d.ScheduleWake(10, w)
	if _, enabled := hw.Compare(); !enabled {
		t.Fatal("Expected compare enabled with a queued wake")
	}

	advanceTicks(d, hw, 10)
	if _, enabled := hw.Compare(); enabled {
		t.Error("Expected compare disabled after the queue drained")
	}
}

func TestSchedulerBeyondSpan(t *testing.T) {
	cfg := testConfig(ModeFine)
	var s alarmScheduler
	var clk tickClock
	hw := newStubCounter()
	s.init(&cfg, hw)
	clk.init(&cfg, hw)
	p, q := newTestQueue(2)

	h, _ := p.allocate()
	q.insert(h, cfg.Span())
	if res := s.arm(q, &clk); res != armDeferred {
		t.Errorf("Expected deadline one span away to be deferred, got %d", res)
	}
	if hw.writes != 0 {
		t.Errorf("Expected no compare writes, got %d", hw.writes)
	}

	q.reschedule(h, cfg.Span()-1)
	if res := s.arm(q, &clk); res != armCompare {
		t.Errorf("Expected deadline inside the span to arm, got %d", res)
	}
	if hw.compare != 254 {
		t.Errorf("Expected compare 254, got %d", hw.compare)
	}
}

type stubCounter struct {
	count   uint32
	compare uint32
	enabled bool
	writes  int
}

func newStubCounter() *stubCounter {
	return &stubCounter{}
}

func (c *stubCounter) Count() uint32 { return c.count }

func (c *stubCounter) SetCompare(v uint32) {
	c.compare = v
	c.writes++
}

func (c *stubCounter) EnableCompare(on bool) { c.enabled = on }
