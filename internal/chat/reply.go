package chat

// Reply picks the text the chat box shows for a result, falling back to
// the persona's stock lines when the model left its reply empty.
func Reply(r Result, p Persona) string {
	switch {
	case r.IsTransaction:
		if r.TransactionResponse != nil {
			return *r.TransactionResponse
		}
		return p.confirmation()
	case r.IsQuery && r.QueryResponse != nil:
		return *r.QueryResponse
	case r.IsQuery && r.Amount != nil:
		return p.cardQuestion()
	default:
		return p.nudge()
	}
}
