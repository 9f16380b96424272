package engine

type MessageRuleFunc = func(c *MessageContext) error

// Holds the registry of content rules to run against each message, and
// dispatches execution. Rules are independent and order-insensitive: each is
// consulted or skipped purely based on the policy snapshot it reads from the
// context, never on another rule's outcome.
type RuleSet struct {
	MessageRules []MessageRuleFunc
}

// Executes all message rules. Only dispatches execution, does no other
// de-dupe or pre/post processing.
func (r *RuleSet) CallMessageRules(c *MessageContext) error {
	for _, f := range r.MessageRules {
		err := f(c)
		if err != nil {
			return err
		}
	}
	return nil
}
