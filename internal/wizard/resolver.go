package wizard

import (
	"context"
	"errors"
	"time"

	tea "charm.land/bubbletea/v2"

	"github.com/mark3labs/remindr/internal/logger"
	"github.com/mark3labs/remindr/internal/reminder"
	"github.com/mark3labs/remindr/internal/rules"
)

// Catalog is the remote constraint service and template catalog.
type Catalog interface {
	Constraints(ctx context.Context, q rules.ConstraintsQuery) (*reminder.Constraints, error)
	Templates(ctx context.Context, q rules.TemplatesQuery) ([]reminder.Template, error)
}

// request is an issued template fetch.
type request struct {
	tag    Pair
	seq    int
	cancel context.CancelFunc
}

// Resolver fetches templates for (channel, level) pairs. A response is only
// applied if it answers the latest request and its tag still matches the
// state's current pair; everything else is stale and dropped. Superseded
// requests are cancelled.
type Resolver struct {
	catalog   Catalog
	subjectID string
	timeout   time.Duration

	seq       int
	current   *request
	requested *Pair
}

// NewResolver returns a resolver fetching from catalog on behalf of subjectID.
func NewResolver(catalog Catalog, subjectID string, timeout time.Duration) *Resolver {
	return &Resolver{catalog: catalog, subjectID: subjectID, timeout: timeout}
}

// Request marks the panel loading and returns the command that fetches
// templates for the state's current pair.
func (r *Resolver) Request(ctx context.Context, s *State) tea.Cmd {
	r.Invalidate()

	tag := s.Pair()
	r.seq++
	seq := r.seq

	var (
		fetchCtx context.Context
		cancel   context.CancelFunc
	)
	if r.timeout > 0 {
		fetchCtx, cancel = context.WithTimeout(ctx, r.timeout)
	} else {
		fetchCtx, cancel = context.WithCancel(ctx)
	}
	r.current = &request{tag: tag, seq: seq, cancel: cancel}
	r.requested = &tag

	s.Panel = PanelLoading
	s.PanelErr = nil
	logger.Debug("Requesting templates for %s/%d [seq %d]", tag.Channel, tag.Level, seq)

	catalog, subjectID := r.catalog, r.subjectID
	return func() tea.Msg {
		templates, err := catalog.Templates(fetchCtx, rules.TemplatesQuery{
			Channel:             tag.Channel,
			Level:               tag.Level,
			SubjectID:           subjectID,
			ValidateConstraints: true,
		})
		return TemplatesFetchedMsg{Tag: tag, Seq: seq, Templates: templates, Err: err}
	}
}

// Invalidate cancels the in-flight request, if any. Its response will be
// dropped on arrival.
func (r *Resolver) Invalidate() {
	if r.current != nil {
		r.current.cancel()
		r.current = nil
	}
}

// Requested reports whether a fetch has been issued for p since the last
// Forget.
func (r *Resolver) Requested(p Pair) bool {
	return r.requested != nil && *r.requested == p
}

// Forget clears the record of the last requested pair.
func (r *Resolver) Forget() {
	r.requested = nil
}

// InFlight reports whether a request is awaiting its response.
func (r *Resolver) InFlight() bool {
	return r.current != nil
}

// Apply applies msg to s if it is fresh and reports whether it was.
func (r *Resolver) Apply(s *State, msg TemplatesFetchedMsg) bool {
	if r.current == nil || msg.Seq != r.current.seq || msg.Tag != s.Pair() {
		logger.Debug("Dropping stale templates for %s/%d [seq %d]", msg.Tag.Channel, msg.Tag.Level, msg.Seq)
		return false
	}
	r.current.cancel()
	r.current = nil

	if msg.Err != nil {
		if errors.Is(msg.Err, context.Canceled) {
			return false
		}
		logger.Warn("Fetching templates for %s/%d: %v", msg.Tag.Channel, msg.Tag.Level, msg.Err)
		s.Templates = nil
		s.SelectedTemplateID = ""
		s.Panel = PanelError
		s.PanelErr = msg.Err
		return true
	}

	templates := make([]reminder.Template, len(msg.Templates))
	copy(templates, msg.Templates)
	for i := range templates {
		templates[i].Normalize()
		templates[i].Recommended = i == 0
	}
	s.Templates = templates
	s.PanelErr = nil

	if s.Selectable() == 0 {
		s.Panel = PanelEmpty
	} else {
		s.Panel = PanelReady
	}

	// A kept selection must still exist and still be selectable.
	if sel := s.Selected(); sel == nil || !sel.Status.Selectable() {
		s.SelectedTemplateID = ""
	}

	logger.Debug("Applied %d templates for %s/%d", len(templates), msg.Tag.Channel, msg.Tag.Level)
	return true
}
