package directory

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/care-router-mcp-server/internal/domain"
)

// Store is a persistent scheduling directory
type Store interface {
	domain.SchedulingDirectory
	SaveProviders(ctx context.Context, providers []domain.Provider) error
	SaveSlots(ctx context.Context, slots []domain.AppointmentSlot) error
	Close() error
}

// Seed fills store with the simulator's roster and the given number of days of slots
func Seed(ctx context.Context, store Store, sim *Simulator, days int) (int, error) {
	if err := store.SaveProviders(ctx, sim.Providers()); err != nil {
		return 0, fmt.Errorf("seeding providers: %w", err)
	}
	slots := sim.Generate(domain.SlotQuery{DaysAhead: days})
	if err := store.SaveSlots(ctx, slots); err != nil {
		return 0, fmt.Errorf("seeding slots: %w", err)
	}
	return len(slots), nil
}

// slotFilter is the shared WHERE clause of the SQL stores
type slotFilter struct {
	from          time.Time
	to            time.Time
	specialty     *domain.Specialty
	kind          *domain.AppointmentKind
	availableOnly bool
}

func newSlotFilter(now time.Time, query domain.SlotQuery) slotFilter {
	days := query.DaysAhead
	if days <= 0 {
		days = defaultDaysAhead
	}
	return slotFilter{
		from:      now,
		to:        now.AddDate(0, 0, days),
		specialty: query.Specialty,
		kind:      query.Kind,
	}
}

func urgentFilter(now time.Time, specialty *domain.Specialty) slotFilter {
	kind := domain.KindUrgentCare
	f := newSlotFilter(now, domain.SlotQuery{Specialty: specialty, DaysAhead: UrgentWindowDays, Kind: &kind})
	f.availableOnly = true
	return f
}

const slotColumns = `s.id, s.start_time, s.kind, s.duration_minutes, s.estimated_cost, s.is_available,
		p.id, p.name, p.specialty, p.location, p.in_network, p.rating, p.years_experience`

// build renders the query. placeholder renders the n-th (1-based) bind parameter and
// timestamp converts times to the column representation.
func (f slotFilter) build(placeholder func(int) string, timestamp func(time.Time) any) (string, []any) {
	args := []any{timestamp(f.from), timestamp(f.to)}
	where := []string{
		"s.start_time >= " + placeholder(1),
		"s.start_time < " + placeholder(2),
	}
	if f.specialty != nil {
		args = append(args, string(*f.specialty))
		where = append(where, "p.specialty = "+placeholder(len(args)))
	}
	if f.kind != nil {
		args = append(args, string(*f.kind))
		where = append(where, "s.kind = "+placeholder(len(args)))
	}
	if f.availableOnly {
		where = append(where, "s.is_available")
	}

	query := fmt.Sprintf(`
		SELECT %s
		FROM slots s
		JOIN providers p ON p.id = s.provider_id
		WHERE %s
		ORDER BY s.start_time, s.id`, slotColumns, strings.Join(where, " AND "))
	return query, args
}

// scanner is an interface for sql.Row, sql.Rows and pgx.Rows
type scanner interface {
	Scan(dest ...any) error
}
