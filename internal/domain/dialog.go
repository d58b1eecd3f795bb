package domain

// FlowKind names a multi-turn dialog. A user holds at most one open
// DialogState per flow kind; re-entering a flow replaces the old state.
type FlowKind string

const (
	FlowAdd      FlowKind = "add"
	FlowEdit     FlowKind = "edit"
	FlowSearch   FlowKind = "search"
	FlowGenreAdd FlowKind = "genre_add"
)

// Stage is the current step within a flow's state machine.
type Stage string

const (
	StageWaitingTitle     Stage = "waiting_title"
	StageWaitingDirector  Stage = "waiting_director"
	StageChoosingGenres   Stage = "choosing_genres"
	StageWaitingGenreName Stage = "waiting_genre_name"
	StageWaitingQuery     Stage = "waiting_query"
)

// DialogState is the per-user, per-flow mutable record. It lives only in
// process memory: a restart drops every open dialog.
type DialogState struct {
	CorrelationID string
	Stage         Stage

	// collected so far
	FileID   string
	Title    string
	Director string
	MovieID  int64
	Page     int

	// genre multi-select
	Selected map[int64]struct{}

	// edit flow keeps the original values for the "-" and
	// keep-genres-unchanged shortcuts
	OrigTitle    string
	OrigDirector string
	OrigGenres   []string
}

// ToggleGenre flips membership of a genre id in the selection set.
func (s *DialogState) ToggleGenre(genreID int64) {
	if s.Selected == nil {
		s.Selected = make(map[int64]struct{})
	}
	if _, ok := s.Selected[genreID]; ok {
		delete(s.Selected, genreID)
	} else {
		s.Selected[genreID] = struct{}{}
	}
}

func (s *DialogState) SelectedIDs() []int64 {
	ids := make([]int64, 0, len(s.Selected))
	for id := range s.Selected {
		ids = append(ids, id)
	}
	return ids
}
