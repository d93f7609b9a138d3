package api

import (
	"math"
	"net"
	"net/http"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"snake-duel/internal/config"

	"golang.org/x/time/rate"
)

// Lane is a class of client traffic with its own budget
type Lane uint8

const (
	LaneRead    Lane = iota // state, board, events, health, /ws upgrades
	LaneInput               // direction requests over HTTP or WebSocket
	LaneControl             // session start/stop
	laneCount
)

func (l Lane) String() string {
	switch l {
	case LaneRead:
		return "read"
	case LaneInput:
		return "input"
	case LaneControl:
		return "control"
	default:
		return "unknown"
	}
}

// Budget is a token bucket refilled at Rate up to Burst
type Budget struct {
	Rate  rate.Limit
	Burst int
}

// retryAfter is the wait for one token, in whole seconds
func (b Budget) retryAfter() string {
	if b.Rate == rate.Inf || b.Rate <= 0 {
		return "1"
	}
	return strconv.Itoa(int(math.Max(1, math.Ceil(1/float64(b.Rate)))))
}

// Limits holds one budget per lane
type Limits [laneCount]Budget

// clientIdle is how long an unseen client keeps its buckets
const clientIdle = 10 * time.Minute

// LimitsFromConfig derives the lane budgets. The input lane refills
// InputPerTick tokens per tick and holds two ticks' worth, so a player can
// turn twice in one tick without outrunning the simulation.
func LimitsFromConfig(cfg config.ServerConfig, tick time.Duration) Limits {
	def := config.DefaultServer()
	if tick <= 0 {
		tick = config.DefaultGame().TickPeriod
	}
	perTick := cfg.InputPerTick
	if perTick <= 0 {
		perTick = def.InputPerTick
	}
	perMin := cfg.ControlPerMin
	if perMin <= 0 {
		perMin = def.ControlPerMin
	}
	readRate, readBurst := cfg.RequestsPerSec, cfg.Burst
	if readRate <= 0 {
		readRate = def.RequestsPerSec
	}
	if readBurst <= 0 {
		readBurst = def.Burst
	}
	controlBurst := cfg.ControlBurst
	if controlBurst <= 0 {
		controlBurst = def.ControlBurst
	}

	var l Limits
	l[LaneRead] = Budget{Rate: rate.Limit(readRate), Burst: readBurst}
	l[LaneInput] = Budget{Rate: rate.Every(tick / time.Duration(perTick)), Burst: 2 * perTick}
	l[LaneControl] = Budget{Rate: rate.Every(time.Minute / time.Duration(perMin)), Burst: controlBurst}
	return l
}

// UnlimitedLimits never rejects; for tests and benchmarks
func UnlimitedLimits() Limits {
	var l Limits
	for i := range l {
		l[i] = Budget{Rate: rate.Inf}
	}
	return l
}

// LaneStats counts decisions for one lane
type LaneStats struct {
	Allowed  uint64 `json:"allowed"`
	Rejected uint64 `json:"rejected"`
}

type clientBuckets struct {
	lanes    [laneCount]*rate.Limiter
	lastSeen time.Time
}

// ClientLimiter keeps per-client token buckets for every lane.
// Idle clients are swept lazily on Allow, so it starts no goroutines.
type ClientLimiter struct {
	limits Limits
	now    func() time.Time

	mu        sync.Mutex
	clients   map[string]*clientBuckets
	lastSweep time.Time

	allowed  [laneCount]atomic.Uint64
	rejected [laneCount]atomic.Uint64
}

// NewClientLimiter creates a limiter enforcing limits
func NewClientLimiter(limits Limits) *ClientLimiter {
	return &ClientLimiter{
		limits:  limits,
		now:     time.Now,
		clients: make(map[string]*clientBuckets),
	}
}

// Allow spends one token from client's lane budget
func (cl *ClientLimiter) Allow(client string, lane Lane) bool {
	if lane >= laneCount {
		return false
	}

	cl.mu.Lock()
	now := cl.now()
	cl.sweepLocked(now)

	c, ok := cl.clients[client]
	if !ok {
		c = &clientBuckets{}
		for i, b := range cl.limits {
			c.lanes[i] = rate.NewLimiter(b.Rate, b.Burst)
		}
		cl.clients[client] = c
	}
	c.lastSeen = now
	ok = c.lanes[lane].AllowN(now, 1)
	cl.mu.Unlock()

	if ok {
		cl.allowed[lane].Add(1)
	} else {
		cl.rejected[lane].Add(1)
		RecordRateLimited(lane)
	}
	return ok
}

func (cl *ClientLimiter) sweepLocked(now time.Time) {
	if now.Sub(cl.lastSweep) < clientIdle {
		return
	}
	cl.lastSweep = now
	for id, c := range cl.clients {
		if now.Sub(c.lastSeen) > clientIdle {
			delete(cl.clients, id)
		}
	}
}

// Clients returns the number of tracked clients
func (cl *ClientLimiter) Clients() int {
	cl.mu.Lock()
	defer cl.mu.Unlock()
	return len(cl.clients)
}

// Stats returns per-lane counters keyed by lane name
func (cl *ClientLimiter) Stats() map[string]LaneStats {
	out := make(map[string]LaneStats, laneCount)
	for l := Lane(0); l < laneCount; l++ {
		out[l.String()] = LaneStats{
			Allowed:  cl.allowed[l].Load(),
			Rejected: cl.rejected[l].Load(),
		}
	}
	return out
}

// Limit returns middleware charging each request to lane
func (cl *ClientLimiter) Limit(lane Lane) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !cl.Allow(ClientIP(r), lane) {
				w.Header().Set("Retry-After", cl.limits[lane].retryAfter())
				writeError(w, "Too many "+lane.String()+" requests", http.StatusTooManyRequests)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// ClientIP keys a request for limiting. Behind the router, chi's RealIP
// middleware has already replaced RemoteAddr with the forwarded address.
func ClientIP(r *http.Request) string {
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}

// connSlots caps concurrent WebSocket connections, in total and per client
type connSlots struct {
	mu       sync.Mutex
	perIP    int
	maxTotal int
	total    int
	byIP     map[string]int
}

func newConnSlots(perIP, maxTotal int) *connSlots {
	return &connSlots{perIP: perIP, maxTotal: maxTotal, byIP: make(map[string]int)}
}

// acquire reserves a slot for ip, returning the rejection reason or ""
func (s *connSlots) acquire(ip string) string {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.total >= s.maxTotal {
		return "ws_total_limit"
	}
	if s.byIP[ip] >= s.perIP {
		return "ws_ip_limit"
	}
	s.byIP[ip]++
	s.total++
	return ""
}

func (s *connSlots) release(ip string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	n, ok := s.byIP[ip]
	if !ok {
		return
	}
	if n <= 1 {
		delete(s.byIP, ip)
	} else {
		s.byIP[ip] = n - 1
	}
	s.total--
}

func (s *connSlots) count(ip string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.byIP[ip]
}
