package deps

import (
	"context"
	"time"

	"github.com/MrSnakeDoc/routine/internal/domain"
	"github.com/MrSnakeDoc/routine/internal/logger"
	"github.com/MrSnakeDoc/routine/internal/metrics"
)

// Items is the item and query service consumed by handlers.
// *routine.Service implements it.
type Items interface {
	List(ctx context.Context) ([]domain.RoutineItem, error)
	Get(ctx context.Context, id string) (domain.RoutineItem, error)
	Create(ctx context.Context, in domain.CreateInput) (domain.RoutineItem, error)
	Update(ctx context.Context, id string, in domain.UpdateInput) (domain.RoutineItem, error)
	Delete(ctx context.Context, id string) error
	Click(ctx context.Context, id string) error
	Reorder(ctx context.Context, ids []string) error
	Search(ctx context.Context, term string) ([]domain.RoutineItem, error)
	Stats(ctx context.Context) (domain.Stats, error)
	Count(ctx context.Context) (int, error)
	Ping(ctx context.Context) error
}

type Deps struct {
	Logger         logger.Logger
	StartTime      time.Time
	Version        string
	Commit         string
	BuildDate      string
	GoVersion      string
	TimeNow        func() time.Time // for testing, defaults to time.Now
	RequestTimeout time.Duration    // per-request deadline, 0 disables it
	AllowedHosts   []string         // Host headers allowed to access the server
	AllowedCIDRS   []string         // IPs allowed to access the server
	TrustProxy     bool             // true if running behind a trusted reverse proxy (e.g., cloudflared)
	CORSOrigins    []string         // allowed CORS origins, "*" for any
	RateBurst      int              // token bucket size per client on mutating item routes
	RatePerMin     int              // tokens refilled per minute
	StoreBackend   string           // store backend name, reported by /status
	Items          Items            // item and query service
	Metrics        *metrics.Metrics // nil disables /metrics and instrumentation
	ReloadTrigger  chan struct{}    // Channel to trigger a manual import (nil if import disabled)
}

// Now returns TimeNow() or time.Now().
func (d Deps) Now() time.Time {
	if d.TimeNow != nil {
		return d.TimeNow()
	}
	return time.Now()
}
