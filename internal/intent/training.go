// internal/intent/training.go
package intent

// trainingExample is one labeled message for the statistical fallback.
type trainingExample struct {
	text  string
	label string
}

// trainingSet is the fixed offline example set. Support phrasing is labeled
// knowledge_base on purpose: support questions are answered from the corpus
// unless an explicit escalation trigger fires.
func trainingSet() []trainingExample {
	var examples []trainingExample

	add := func(label string, texts ...string) {
		for _, t := range texts {
			examples = append(examples, trainingExample{text: t, label: label})
		}
	}

	add("knowledge_base",
		"what are your business hours", "how can i contact support",
		"what products do you offer", "tell me about your return policy",
		"what services do you provide", "explain your platform",
		"information about your solutions", "describe your offerings",
		"what can you tell me about your services", "show me your features",
		"i have a question about your products", "details about analytics",
		"tell me about enterprise suite", "cloud services information",
		"what is crm", "explain your features", "product catalog",
	)

	add("knowledge_base",
		"i need technical support", "i need help with a problem",
		"something is not working", "can you help me fix this",
		"i have an issue", "technical assistance needed",
		"my product is broken", "troubleshooting help",
		"error message", "system not working", "need customer support",
		"help with my account", "fix this problem", "assistance required",
	)

	add("action",
		"i want to book an appointment", "schedule a meeting",
		"book a consultation", "set up a call", "arrange a demo",
		"i need to schedule service", "make an appointment",
		"reserve a time slot", "can i schedule an appointment",
		"i want to set up a meeting", "book me for a session",
		"schedule a demo for tuesday", "appointment at 3pm",
		"demo on friday afternoon",
	)

	add("escalation",
		"i want to talk to a human", "connect me with an agent",
		"let me speak to a manager", "transfer to a person",
		"i need a real person", "this is not helping",
		"get me a human", "speak with support agent",
		"connect to live agent", "talk to supervisor",
	)

	add("greeting",
		"hello", "hi", "hey", "good morning",
		"good afternoon", "good evening", "greetings", "hi there",
	)

	add("goodbye",
		"goodbye", "bye", "see you", "thanks",
		"thank you", "that's all", "no more questions",
		"i'm done", "all set", "nothing else",
	)

	add("menu_selection",
		"1", "2", "3", "4", "5", "option 1", "option 2",
	)

	return examples
}
