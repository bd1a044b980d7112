// Package selection tracks which conversations and messages are marked
// for export. Pure in-memory state with a single logical owner.
package selection

// State holds the two independent selection axes: whole conversations
// and individual messages within a conversation. A conversation can be
// selected with zero messages selected; the export step treats that as
// contributing nothing, not as an error.
type State struct {
	conversations map[string]struct{}
	messages      map[string]map[string]struct{}
}

// NewState creates an empty selection.
func NewState() *State {
	return &State{
		conversations: make(map[string]struct{}),
		messages:      make(map[string]map[string]struct{}),
	}
}

// ToggleConversation flips the conversation-level selection.
func (s *State) ToggleConversation(id string) {
	if _, ok := s.conversations[id]; ok {
		delete(s.conversations, id)
	} else {
		s.conversations[id] = struct{}{}
	}
}

// SelectConversation marks a conversation as selected.
func (s *State) SelectConversation(id string) {
	s.conversations[id] = struct{}{}
}

// IsConversationSelected reports the conversation-level flag.
func (s *State) IsConversationSelected(id string) bool {
	_, ok := s.conversations[id]
	return ok
}

// ConversationIDs returns the selected conversation ids (unordered).
func (s *State) ConversationIDs() []string {
	ids := make([]string, 0, len(s.conversations))
	for id := range s.conversations {
		ids = append(ids, id)
	}
	return ids
}

// ConversationCount returns the number of selected conversations.
func (s *State) ConversationCount() int {
	return len(s.conversations)
}

// ToggleMessage flips one message's selection within a conversation.
func (s *State) ToggleMessage(convID, msgID string) {
	set, ok := s.messages[convID]
	if !ok {
		set = make(map[string]struct{})
		s.messages[convID] = set
	}
	if _, ok := set[msgID]; ok {
		delete(set, msgID)
	} else {
		set[msgID] = struct{}{}
	}
}

// SelectMessage marks one message as selected. Used both by the detail
// view (select-all on open) and by enrichment, which additively selects
// newly merged MMS messages the user has not seen yet.
func (s *State) SelectMessage(convID, msgID string) {
	set, ok := s.messages[convID]
	if !ok {
		set = make(map[string]struct{})
		s.messages[convID] = set
	}
	set[msgID] = struct{}{}
}

// HasMessageSelection reports whether a per-message selection was ever
// recorded for the conversation. When none was, the export falls back to
// the date filter alone.
func (s *State) HasMessageSelection(convID string) bool {
	_, ok := s.messages[convID]
	return ok
}

// IsMessageSelected reports one message's selection.
func (s *State) IsMessageSelected(convID, msgID string) bool {
	set, ok := s.messages[convID]
	if !ok {
		return false
	}
	_, ok = set[msgID]
	return ok
}

// SelectedMessageCount returns the number of selected messages in a
// conversation.
func (s *State) SelectedMessageCount(convID string) int {
	return len(s.messages[convID])
}

// CommitConversationDetail closes the detail view for a conversation.
// A non-empty message selection promotes the conversation to selected.
// An emptied one is discarded entirely: the conversation-level flag is
// untouched and the conversation falls back to exporting in full.
func (s *State) CommitConversationDetail(convID string) {
	if len(s.messages[convID]) > 0 {
		s.conversations[convID] = struct{}{}
		return
	}
	delete(s.messages, convID)
}
