package events

import "fmt"

// Filter mode names accepted by FilterFromConfig.
const (
	FilterModeAllowAll = "allow_all"
	FilterModeInclude  = "include"
	FilterModeExclude  = "exclude"
)

// Filter decides which event types reach the sinks. A filter is either
// allow-all, an include-list (only listed types pass), or an exclude-list
// (all but listed types pass). Filters are immutable after construction.
type Filter struct {
	useIncludeList bool
	include        map[EventType]struct{}
	exclude        map[EventType]struct{}
}

// AllowAll creates a filter that passes every event type.
func AllowAll() *Filter {
	return &Filter{}
}

// IncludeOnly creates a filter that passes only the listed event types.
func IncludeOnly(types ...EventType) *Filter {
	f := &Filter{
		useIncludeList: true,
		include:        make(map[EventType]struct{}, len(types)),
	}
	for _, t := range types {
		f.include[t] = struct{}{}
	}
	return f
}

// ExcludeEvents creates a filter that passes everything except the listed
// event types.
func ExcludeEvents(types ...EventType) *Filter {
	f := &Filter{
		exclude: make(map[EventType]struct{}, len(types)),
	}
	for _, t := range types {
		f.exclude[t] = struct{}{}
	}
	return f
}

// FilterFromConfig builds a filter from configuration strings, e.g. mode
// "include" with types ["token_created"].
func FilterFromConfig(mode string, types []string) (*Filter, error) {
	eventTypes := make([]EventType, 0, len(types))
	for _, t := range types {
		eventTypes = append(eventTypes, EventType(t))
	}

	switch mode {
	case "", FilterModeAllowAll:
		return AllowAll(), nil
	case FilterModeInclude:
		return IncludeOnly(eventTypes...), nil
	case FilterModeExclude:
		return ExcludeEvents(eventTypes...), nil
	default:
		return nil, fmt.Errorf("unknown event filter mode %q", mode)
	}
}

// ShouldEmit reports whether the event type passes the filter. Pure
// set-membership check; safe for concurrent use.
func (f *Filter) ShouldEmit(eventType EventType) bool {
	if f.useIncludeList {
		_, ok := f.include[eventType]
		return ok
	}
	_, ok := f.exclude[eventType]
	return !ok
}
