// internal/dialog/menus.go
package dialog

import "strings"

// menuType is detected by sniffing the previous bot message, since bare
// digit replies carry no context of their own.
type menuType string

const (
	menuNone    menuType = ""
	menuProduct menuType = "product"
	menuSupport menuType = "support"
	menuGeneral menuType = "general"
)

// menuAction is what a numbered selection resolves to. Exactly one of the
// routing fields is set; response alone means a plain reply.
type menuAction struct {
	response       string
	escalate       bool
	escalateReason string
	startFlow      bool
	presetService  string
	knowledgeQuery string
}

func detectMenuType(lastBotMessage string) menuType {
	lower := strings.ToLower(lastBotMessage)

	switch {
	case strings.Contains(lower, "schedule a product demo") &&
		strings.Contains(lower, "compare different products"):
		return menuProduct
	case strings.Contains(lower, "connect with a support specialist") &&
		strings.Contains(lower, "schedule a support appointment"):
		return menuSupport
	case strings.Contains(lower, "reply with 1") ||
		strings.Contains(lower, "please reply with 1"):
		return menuGeneral
	default:
		return menuNone
	}
}

func resolveMenuSelection(selection string, menu menuType) menuAction {
	switch menu {
	case menuProduct:
		return resolveProductMenu(selection)
	case menuSupport:
		return resolveSupportMenu(selection)
	default:
		return resolveGeneralMenu(selection)
	}
}

func resolveProductMenu(selection string) menuAction {
	switch selection {
	case "1":
		return menuAction{
			response:      "I'd be happy to schedule a product demo for you! Let's get started...",
			startFlow:     true,
			presetService: "consultation",
		}
	case "2":
		return menuAction{knowledgeQuery: "pricing plans and subscription costs"}
	case "3":
		return menuAction{knowledgeQuery: "product comparison features and differences"}
	case "4":
		return menuAction{escalate: true, escalateReason: "Product specialist requested from menu"}
	default:
		return menuAction{response: "Please select 1, 2, 3, or 4."}
	}
}

func resolveSupportMenu(selection string) menuAction {
	switch selection {
	case "1":
		return menuAction{escalate: true, escalateReason: "Support specialist requested from menu"}
	case "2":
		return menuAction{
			response:      "I'd be happy to help you schedule a support appointment!",
			startFlow:     true,
			presetService: "support",
		}
	case "3":
		return menuAction{response: "Please tell me more about your issue so I can search our knowledge base for specific solutions."}
	default:
		return menuAction{response: "Please select 1, 2, or 3."}
	}
}

func resolveGeneralMenu(selection string) menuAction {
	switch selection {
	case "1":
		return menuAction{escalate: true, escalateReason: "Specialist requested from menu"}
	case "2":
		return menuAction{
			response:  "I'd be happy to help you schedule an appointment!",
			startFlow: true,
		}
	case "3":
		return menuAction{response: "Please tell me more about what you need help with."}
	default:
		return menuAction{response: "Please select 1, 2, or 3."}
	}
}
