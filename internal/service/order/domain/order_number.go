// internal/service/order/domain/order_number.go
package domain

import (
	"sync"
	"time"
)

const orderNumberLayout = "20060102150405"

// NumberGenerator 生成 "M"+yyyyMMddHHmmss 格式的订单号。
// 同一进程内单调递增：同一秒内的第二次调用会顺延一秒。
type NumberGenerator struct {
	mu   sync.Mutex
	loc  *time.Location
	last time.Time
	now  func() time.Time
}

func NewNumberGenerator(loc *time.Location) *NumberGenerator {
	if loc == nil {
		loc = time.Local
	}
	return &NumberGenerator{loc: loc, now: time.Now}
}

// WithClock 替换时钟
func (g *NumberGenerator) WithClock(now func() time.Time) *NumberGenerator {
	g.now = now
	return g
}

func (g *NumberGenerator) Next() string {
	g.mu.Lock()
	defer g.mu.Unlock()

	t := g.now().In(g.loc).Truncate(time.Second)
	if !t.After(g.last) {
		t = g.last.Add(time.Second)
	}
	g.last = t
	return "M" + t.Format(orderNumberLayout)
}
