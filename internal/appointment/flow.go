// internal/appointment/flow.go
package appointment

import (
	"context"
	"regexp"
	"strconv"
	"strings"
	"time"

	"care-chatbot/internal/common/logger"
	"care-chatbot/internal/common/metrics"
	"care-chatbot/internal/common/resilience"
	"care-chatbot/internal/models"
	"care-chatbot/internal/nlp"
)

// ConfirmationSender delivers booking confirmations to the customer.
// Delivery is best-effort; failures never block the booking.
type ConfirmationSender interface {
	SendConfirmation(ctx context.Context, appt *models.Appointment) error
}

// Flow drives the slot-filling appointment dialog on ConversationState.
type Flow struct {
	rules    *Rules
	store    Store
	analyzer *nlp.Analyzer
	notifier ConfirmationSender
	log      logger.Logger
	now      func() time.Time
}

// NewFlow builds the flow. notifier may be nil.
func NewFlow(rules *Rules, store Store, analyzer *nlp.Analyzer, notifier ConfirmationSender, log logger.Logger) *Flow {
	return &Flow{
		rules:    rules,
		store:    store,
		analyzer: analyzer,
		notifier: notifier,
		log:      log,
		now:      time.Now,
	}
}

// Result is the outcome of one flow turn.
type Result struct {
	Response       string
	ActionRequired bool
	Booked         *models.Appointment
	Cancelled      bool
}

var cancelWords = []string{"cancel", "stop", "exit", "nevermind", "never mind", "abort"}

var (
	yesWords = map[string]bool{
		"yes": true, "yeah": true, "yep": true, "yup": true, "correct": true,
		"confirm": true, "confirmed": true, "right": true, "sure": true,
		"ok": true, "okay": true,
	}
	noWords = map[string]bool{
		"no": true, "nope": true, "wrong": true, "incorrect": true, "change": true,
	}
)

// changeTargets maps the user's wording to the slot to re-collect.
// Order matters: more specific phrases are checked first.
var changeTargets = []struct {
	keyword string
	slot    string
}{
	{"service type", models.SlotServiceType},
	{"service", models.SlotServiceType},
	{"type", models.SlotServiceType},
	{"date", models.SlotDate},
	{"day", models.SlotDate},
	{"time", models.SlotTime},
	{"hour", models.SlotTime},
	{"schedule", models.SlotTime},
	{"name", models.SlotCustomerName},
	{"email", models.SlotEmail},
	{"contact", models.SlotEmail},
}

var (
	bareDigitRe = regexp.MustCompile(`^\s*([1-9])\s*$`)
	digitsRe    = regexp.MustCompile(`^\d+$`)
)

// temporal vocabulary that must not be accepted as a customer name.
var dateTimeWords = []string{
	"today", "tomorrow", "yesterday", "morning", "afternoon", "evening",
	"monday", "tuesday", "wednesday", "thursday", "friday", "saturday", "sunday",
	"january", "february", "march", "april", "may", "june", "july", "august",
	"september", "october", "november", "december",
	"am", "pm", "noon", "midnight",
}

// Handle runs one turn of the booking dialog.
func (f *Flow) Handle(ctx context.Context, state *models.ConversationState, message string) Result {
	if isCancellation(message) && state.FlowState != models.FlowNone {
		state.ResetFlow()
		return Result{Response: cancelledMessage(), Cancelled: true}
	}

	if state.WaitingForConfirmation {
		return f.handleConfirmation(ctx, state, message)
	}

	if state.FlowState == models.FlowNone {
		state.FlowState = models.FlowStarted
	}

	if state.FlowState == models.FlowModifying && state.CurrentQuestion == "" {
		return f.handleChangeRequest(state, message)
	}

	extracted := f.extract(message, state.CurrentQuestion)
	for slot, value := range extracted {
		if value != "" {
			state.AppointmentData[slot] = value
		}
	}

	// Validate date (and the date+time pair) as soon as they land. Rejected
	// values are cleared so the user can re-supply them.
	if date := state.AppointmentData[models.SlotDate]; date != "" {
		if ok, reason := f.rules.ValidateDate(date); !ok {
			delete(state.AppointmentData, models.SlotDate)
			state.CurrentQuestion = models.SlotDate
			state.FlowState = models.FlowCollecting
			return Result{Response: reason, ActionRequired: true}
		}
		if timeOfDay := state.AppointmentData[models.SlotTime]; timeOfDay != "" {
			if ok, reason := f.rules.ValidateSlot(date, timeOfDay); !ok {
				delete(state.AppointmentData, models.SlotTime)
				state.CurrentQuestion = models.SlotTime
				state.FlowState = models.FlowCollecting
				return Result{Response: reason, ActionRequired: true}
			}
		}
	}

	missing := state.MissingSlot()
	if missing == "" {
		state.CurrentQuestion = ""
		state.WaitingForConfirmation = true
		state.FlowState = models.FlowConfirming
		return Result{Response: confirmationSummary(state.AppointmentData), ActionRequired: true}
	}

	// The asked slot is still missing and this turn produced nothing for it:
	// re-ask with extraction hints instead of moving on.
	if state.CurrentQuestion == missing && extracted[missing] == "" {
		return Result{
			Response:       slotRetry(missing, strings.TrimSpace(message), state.AppointmentData, f.rules.ServiceTypes()),
			ActionRequired: true,
		}
	}

	firstAsk := state.CurrentQuestion == ""
	state.CurrentQuestion = missing
	state.FlowState = models.FlowCollecting

	if firstAsk && len(extracted) == 0 {
		return Result{Response: slotQuestion(missing, f.rules.ServiceTypes()), ActionRequired: true}
	}
	return Result{Response: progressPrompt(state.AppointmentData, missing, f.rules.ServiceTypes()), ActionRequired: true}
}

// extract pulls slot values from one message. Dates and times are parsed
// before name patterns so temporal words are never captured as names.
func (f *Flow) extract(message string, currentQuestion string) map[string]string {
	extracted := make(map[string]string)
	entities := f.analyzer.ExtractEntities(message)
	parser := f.analyzer.DateTime()

	if services := entities[nlp.EntityServiceType]; len(services) > 0 && f.rules.IsKnownService(services[0]) {
		extracted[models.SlotServiceType] = strings.ToLower(services[0])
	}
	if currentQuestion == models.SlotServiceType {
		if m := bareDigitRe.FindStringSubmatch(message); m != nil {
			n, _ := strconv.Atoi(m[1])
			if svc, ok := f.rules.ServiceByIndex(n); ok {
				extracted[models.SlotServiceType] = svc
			}
		}
	}

	if date := parser.ParseDate(message); date != "" {
		extracted[models.SlotDate] = date
	} else if candidates := entities[nlp.EntityDate]; len(candidates) > 0 {
		if date := parser.ParseDate(candidates[0]); date != "" {
			extracted[models.SlotDate] = date
		}
	}

	if timeOfDay := parser.ParseTime(message); timeOfDay != "" {
		extracted[models.SlotTime] = timeOfDay
	} else {
		for _, candidate := range entities[nlp.EntityTime] {
			if timeOfDay := parser.ParseTime(candidate); timeOfDay != "" {
				extracted[models.SlotTime] = timeOfDay
				break
			}
		}
	}

	if names := f.analyzer.ExtractNames(message); len(names) > 0 {
		extracted[models.SlotCustomerName] = names[0]
	} else if currentQuestion == models.SlotCustomerName && !containsDateTimeWord(message) {
		// Free text is accepted as a name when directly asked for one.
		trimmed := strings.TrimSpace(message)
		if len(trimmed) >= 2 && !digitsRe.MatchString(trimmed) && len(strings.Fields(trimmed)) <= 3 {
			extracted[models.SlotCustomerName] = titleCase(trimmed)
		}
	}

	if emails := entities[nlp.EntityEmail]; len(emails) > 0 {
		extracted[models.SlotEmail] = emails[0]
	}

	return extracted
}

func (f *Flow) handleConfirmation(ctx context.Context, state *models.ConversationState, message string) Result {
	lower := strings.ToLower(strings.TrimSpace(message))
	firstWord := lower
	if fields := strings.Fields(lower); len(fields) > 0 {
		firstWord = strings.Trim(fields[0], ".,!")
	}

	switch {
	case yesWords[firstWord]:
		return f.book(ctx, state)
	case noWords[firstWord]:
		state.WaitingForConfirmation = false
		state.FlowState = models.FlowModifying
		state.CurrentQuestion = ""
		// "no, change the time" names the field in the same breath.
		if slot := detectChangeTarget(message); slot != "" {
			return f.reaskSlot(state, slot)
		}
		return Result{Response: changePrompt(), ActionRequired: true}
	default:
		return Result{
			Response:       "Please reply **yes** to confirm the appointment or **no** to change something.\n\n" + confirmationSummary(state.AppointmentData),
			ActionRequired: true,
		}
	}
}

func (f *Flow) handleChangeRequest(state *models.ConversationState, message string) Result {
	if slot := detectChangeTarget(message); slot != "" {
		return f.reaskSlot(state, slot)
	}
	return Result{
		Response: "I'm not sure what you want to change. Please tell me exactly what you want to change " +
			"(e.g., 'service', 'date', 'time', 'name', or 'email').",
		ActionRequired: true,
	}
}

func (f *Flow) reaskSlot(state *models.ConversationState, slot string) Result {
	delete(state.AppointmentData, slot)
	state.CurrentQuestion = slot
	return Result{Response: slotQuestion(slot, f.rules.ServiceTypes()), ActionRequired: true}
}

// StartModification loads an existing booking into the flow so individual
// fields can be re-collected and saved in place.
func (f *Flow) StartModification(state *models.ConversationState, appt *models.Appointment) Result {
	state.FlowState = models.FlowModifying
	state.ExistingAppointmentID = appt.ID
	state.CurrentQuestion = ""
	state.WaitingForConfirmation = false
	state.AppointmentData = map[string]string{
		models.SlotServiceType:  appt.ServiceType,
		models.SlotDate:         appt.Date,
		models.SlotTime:         appt.Time,
		models.SlotCustomerName: appt.CustomerName,
		models.SlotEmail:        appt.Email,
	}
	return Result{Response: modifyingPrompt(appt), ActionRequired: true}
}

func (f *Flow) book(ctx context.Context, state *models.ConversationState) Result {
	if state.ExistingAppointmentID != "" {
		return f.update(ctx, state)
	}
	now := f.now().UTC()
	appt := &models.Appointment{
		ID:           NewAppointmentID(now),
		UserID:       state.UserID,
		ServiceType:  state.AppointmentData[models.SlotServiceType],
		Date:         state.AppointmentData[models.SlotDate],
		Time:         state.AppointmentData[models.SlotTime],
		CustomerName: state.AppointmentData[models.SlotCustomerName],
		Email:        state.AppointmentData[models.SlotEmail],
		Status:       models.AppointmentConfirmed,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	err := resilience.Retry(ctx, 2, func() error {
		return f.store.Create(ctx, appt)
	})
	if err != nil {
		f.log.WithError(err).Error("failed to persist appointment", map[string]interface{}{
			"user_id": state.UserID,
		})
		return Result{
			Response:       "Something went wrong while saving your appointment. Please try confirming again in a moment.",
			ActionRequired: true,
		}
	}

	metrics.AppointmentsBooked.WithLabelValues("create", appt.ServiceType).Inc()
	f.log.Info("appointment booked", map[string]interface{}{
		"appointment_id": appt.ID,
		"user_id":        state.UserID,
		"service_type":   appt.ServiceType,
	})

	if f.notifier != nil {
		go func(a models.Appointment) {
			sendCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := f.notifier.SendConfirmation(sendCtx, &a); err != nil {
				f.log.WithError(err).Warn("confirmation delivery failed", map[string]interface{}{
					"appointment_id": a.ID,
				})
			}
		}(*appt)
	}

	state.ResetFlow()
	return Result{Response: bookedMessage(appt), Booked: appt}
}

func (f *Flow) update(ctx context.Context, state *models.ConversationState) Result {
	id := state.ExistingAppointmentID
	updates := make(map[string]string, len(models.SlotPriority))
	for _, slot := range models.SlotPriority {
		if value := state.AppointmentData[slot]; value != "" {
			updates[slot] = value
		}
	}

	var appt *models.Appointment
	err := resilience.Retry(ctx, 2, func() error {
		var updateErr error
		appt, updateErr = f.store.Update(ctx, id, updates)
		return updateErr
	})
	if err != nil {
		f.log.WithError(err).Error("failed to update appointment", map[string]interface{}{
			"appointment_id": id,
			"user_id":        state.UserID,
		})
		return Result{
			Response:       "Something went wrong while updating your appointment. Please try confirming again in a moment.",
			ActionRequired: true,
		}
	}

	metrics.AppointmentsBooked.WithLabelValues("update", appt.ServiceType).Inc()
	f.log.Info("appointment updated", map[string]interface{}{
		"appointment_id": appt.ID,
		"user_id":        state.UserID,
	})

	if f.notifier != nil {
		go func(a models.Appointment) {
			sendCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := f.notifier.SendConfirmation(sendCtx, &a); err != nil {
				f.log.WithError(err).Warn("confirmation delivery failed", map[string]interface{}{
					"appointment_id": a.ID,
				})
			}
		}(*appt)
	}

	state.ResetFlow()
	return Result{Response: updatedMessage(appt), Booked: appt}
}

func detectChangeTarget(message string) string {
	lower := strings.ToLower(message)
	for _, target := range changeTargets {
		if strings.Contains(lower, target.keyword) {
			return target.slot
		}
	}
	return ""
}

func isCancellation(message string) bool {
	lower := strings.ToLower(strings.TrimSpace(message))
	for _, word := range cancelWords {
		if lower == word || strings.HasPrefix(lower, word+" ") {
			return true
		}
	}
	return false
}

func containsDateTimeWord(message string) bool {
	lower := strings.ToLower(message)
	for _, word := range dateTimeWords {
		if containsWholeWord(lower, word) {
			return true
		}
	}
	return false
}

func containsWholeWord(text, word string) bool {
	idx := 0
	for {
		i := strings.Index(text[idx:], word)
		if i < 0 {
			return false
		}
		start := idx + i
		end := start + len(word)
		beforeOK := start == 0 || !isLetter(text[start-1])
		afterOK := end == len(text) || !isLetter(text[end])
		if beforeOK && afterOK {
			return true
		}
		idx = start + 1
	}
}

func isLetter(b byte) bool {
	return (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z')
}
