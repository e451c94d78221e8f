// Package oracle asks an external language model to distribute work portions
// among users. The model's decision is not checked locally; callers get back
// whatever mapping it produced, or an error that says why there is none.
package oracle

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"

	"github.com/teambalancer/teambalancer-api/internal/config"
)

var (
	// ErrUnavailable covers transport failures and non-success provider replies.
	ErrUnavailable = errors.New("oracle unavailable")
	// ErrTimeout is returned when the call exceeds its deadline.
	ErrTimeout = errors.New("oracle timed out")
	// ErrMalformedReply is returned when the reply holds no usable mapping.
	ErrMalformedReply = errors.New("oracle reply malformed")
)

type Portion struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Weight      int    `json:"weight"`
}

type Member struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Role     string `json:"role"`
}

type Input struct {
	Portions []Portion
	Users    []Member
	// Preferences maps user id -> work portion id -> level (1-5).
	Preferences map[int64]map[int64]int
}

// Distribution maps work portion id to user id.
type Distribution map[int64]int64

type Oracle interface {
	Distribute(ctx context.Context, in Input) (Distribution, error)
}

// Func adapts a plain function to the Oracle interface.
type Func func(ctx context.Context, in Input) (Distribution, error)

func (f Func) Distribute(ctx context.Context, in Input) (Distribution, error) {
	return f(ctx, in)
}

// Kind names the failure class of err for logs and metric labels.
func Kind(err error) string {
	switch {
	case err == nil:
		return "none"
	case errors.Is(err, ErrTimeout):
		return "timeout"
	case errors.Is(err, ErrMalformedReply):
		return "malformed"
	case errors.Is(err, ErrUnavailable):
		return "unavailable"
	default:
		return "unknown"
	}
}

// New builds the backend named by cfg.Provider.
func New(ctx context.Context, cfg config.OracleConfig, logger *slog.Logger) (Oracle, error) {
	switch cfg.Provider {
	case "groq", "":
		return NewGroqOracle(cfg, logger), nil
	case "gemini":
		return NewGeminiOracle(ctx, cfg, logger)
	default:
		return nil, fmt.Errorf("unsupported oracle provider: %s", cfg.Provider)
	}
}

func classifyCallError(ctx context.Context, err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", ErrTimeout, err)
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return fmt.Errorf("%w: %v", ErrTimeout, err)
	}
	return fmt.Errorf("%w: %v", ErrUnavailable, err)
}
