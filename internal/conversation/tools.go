package conversation

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/wolfman30/docconnect-ai/internal/bookings"
	"github.com/wolfman30/docconnect-ai/internal/directory"
	"github.com/wolfman30/docconnect-ai/pkg/logging"
)

// ToolName identifies one of the fixed local tools.
type ToolName string

const (
	ToolGetDoctorsInfo    ToolName = "get_doctors_info"
	ToolGetTreatmentsInfo ToolName = "get_treatments_info"
	ToolGetAvailableSlots ToolName = "get_available_slots"
	ToolBookAppointment   ToolName = "book_appointment"
)

const (
	msgDoctorNotFound  = "Doctor not found or availability not set."
	msgBookingsLookup  = "Could not check existing bookings."
	msgInvalidDate     = "Invalid date. Use the YYYY-MM-DD format."
	msgSlotUnavailable = "The requested time slot is no longer available or invalid."
	msgBooked          = "Appointment booked successfully!"
)

// Directory is the read side used by the lookup tools.
type Directory interface {
	FindDoctors(ctx context.Context, filter directory.DoctorFilter) ([]directory.Doctor, error)
	FindTreatments(ctx context.Context, filter directory.TreatmentFilter) ([]directory.Treatment, error)
}

// Scheduler computes availability and books appointments.
type Scheduler interface {
	AvailableSlots(ctx context.Context, doctorID, date string) ([]string, error)
	Book(ctx context.Context, req bookings.BookingRequest) (*bookings.Booking, error)
}

// toolHandler returns the JSON text fed back to the model. Store failures are
// encoded in that text; an error is returned only for undecodable arguments.
type toolHandler func(ctx context.Context, args json.RawMessage) (string, error)

// ToolBox is the dispatch table from tool name to handler.
type ToolBox struct {
	directory Directory
	scheduler Scheduler
	logger    *logging.Logger
	handlers  map[ToolName]toolHandler
}

func NewToolBox(dir Directory, scheduler Scheduler, logger *logging.Logger) *ToolBox {
	if dir == nil {
		panic("conversation: directory required")
	}
	if scheduler == nil {
		panic("conversation: scheduler required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	t := &ToolBox{directory: dir, scheduler: scheduler, logger: logger}
	t.handlers = map[ToolName]toolHandler{
		ToolGetDoctorsInfo:    t.getDoctorsInfo,
		ToolGetTreatmentsInfo: t.getTreatmentsInfo,
		ToolGetAvailableSlots: t.getAvailableSlots,
		ToolBookAppointment:   t.bookAppointment,
	}
	return t
}

// Definitions returns the tool schema declared to the model.
func (t *ToolBox) Definitions() []ToolDefinition {
	return toolDefinitions
}

// Dispatch runs the named tool. known is false when the name is not in the
// table, in which case no handler runs.
func (t *ToolBox) Dispatch(ctx context.Context, name, arguments string) (result string, known bool, err error) {
	handler, ok := t.handlers[ToolName(name)]
	if !ok {
		return "", false, nil
	}
	raw := json.RawMessage(arguments)
	if strings.TrimSpace(arguments) == "" {
		raw = json.RawMessage("{}")
	}
	result, err = handler(ctx, raw)
	return result, true, err
}

var toolDefinitions = []ToolDefinition{
	{
		Name:        string(ToolGetDoctorsInfo),
		Description: "Get information about doctors, optionally filtered by specialization or name.",
		Parameters: []ToolParameter{
			{Name: "specialization", Type: "string", Description: "The medical specialization of the doctor (e.g., 'Cardiology', 'Pediatrics')."},
			{Name: "name", Type: "string", Description: "The name of the doctor."},
		},
	},
	{
		Name:        string(ToolGetTreatmentsInfo),
		Description: "Get information about medical treatments offered, optionally filtered by treatment name or specialization.",
		Parameters: []ToolParameter{
			{Name: "treatmentName", Type: "string", Description: "The name of the treatment (e.g., 'Angioplasty', 'Vaccination Programs')."},
			{Name: "specialization", Type: "string", Description: "The medical specialization related to the treatment (e.g., 'Cardiology', 'Pediatrics')."},
		},
	},
	{
		Name:        string(ToolGetAvailableSlots),
		Description: "Get available time slots for a specific doctor on a given date.",
		Parameters: []ToolParameter{
			{Name: "doctor_id", Type: "string", Description: "The ID of the doctor.", Required: true},
			{Name: "date", Type: "string", Format: "date", Description: "The date for which to check availability, in 'YYYY-MM-DD' format.", Required: true},
		},
	},
	{
		Name:        string(ToolBookAppointment),
		Description: "Book an appointment with a doctor. Requires full patient details and a confirmed available slot.",
		Parameters: []ToolParameter{
			{Name: "doctor_id", Type: "string", Description: "The ID of the doctor for the appointment.", Required: true},
			{Name: "appointment_date", Type: "string", Format: "date", Description: "The date of the appointment in 'YYYY-MM-DD' format.", Required: true},
			{Name: "appointment_time", Type: "string", Description: "The time of the appointment in 'hh:mm a' format (e.g., '09:00 AM').", Required: true},
			{Name: "full_name", Type: "string", Description: "The full name of the patient.", Required: true},
			{Name: "email", Type: "string", Format: "email", Description: "The email address of the patient.", Required: true},
			{Name: "phone", Type: "string", Description: "The phone number of the patient.", Required: true},
			{Name: "gender", Type: "string", Enum: []string{"male", "female", "other"}, Description: "The gender of the patient.", Required: true},
			{Name: "age", Type: "number", Description: "The age of the patient.", Required: true},
			{Name: "reason_for_visit", Type: "string", Description: "The reason for the patient's visit.", Required: true},
		},
	},
}

func (t *ToolBox) getDoctorsInfo(ctx context.Context, raw json.RawMessage) (string, error) {
	var args struct {
		Specialization string `json:"specialization"`
		Name           string `json:"name"`
	}
	if err := decodeArgs(raw, &args); err != nil {
		return "", err
	}
	doctors, err := t.directory.FindDoctors(ctx, directory.DoctorFilter{
		Specialization: args.Specialization,
		Name:           args.Name,
	})
	if err != nil {
		t.logger.Error("get_doctors_info failed", "error", err)
		return errorJSON(err.Error()), nil
	}
	return marshalResult(doctors), nil
}

func (t *ToolBox) getTreatmentsInfo(ctx context.Context, raw json.RawMessage) (string, error) {
	var args struct {
		TreatmentName  string `json:"treatmentName"`
		Specialization string `json:"specialization"`
	}
	if err := decodeArgs(raw, &args); err != nil {
		return "", err
	}
	treatments, err := t.directory.FindTreatments(ctx, directory.TreatmentFilter{
		Name:           args.TreatmentName,
		Specialization: args.Specialization,
	})
	if err != nil {
		t.logger.Error("get_treatments_info failed", "error", err)
		return errorJSON(err.Error()), nil
	}
	return marshalResult(treatments), nil
}

func (t *ToolBox) getAvailableSlots(ctx context.Context, raw json.RawMessage) (string, error) {
	var args struct {
		DoctorID flexString `json:"doctor_id"`
		Date     string     `json:"date"`
	}
	if err := decodeArgs(raw, &args); err != nil {
		return "", err
	}
	slots, err := t.scheduler.AvailableSlots(ctx, string(args.DoctorID), args.Date)
	if err != nil {
		switch {
		case errors.Is(err, bookings.ErrDoctorNotFound):
			return errorJSON(msgDoctorNotFound), nil
		case errors.Is(err, bookings.ErrBookingsLookup):
			return errorJSON(msgBookingsLookup), nil
		case errors.Is(err, bookings.ErrInvalidDate):
			return errorJSON(msgInvalidDate), nil
		default:
			t.logger.Error("get_available_slots failed", "doctor_id", string(args.DoctorID), "error", err)
			return errorJSON(err.Error()), nil
		}
	}
	return marshalResult(map[string]any{"available_slots": slots}), nil
}

func (t *ToolBox) bookAppointment(ctx context.Context, raw json.RawMessage) (string, error) {
	var args struct {
		DoctorID        flexString `json:"doctor_id"`
		AppointmentDate string     `json:"appointment_date"`
		AppointmentTime string     `json:"appointment_time"`
		FullName        string     `json:"full_name"`
		Email           string     `json:"email"`
		Phone           flexString `json:"phone"`
		Gender          string     `json:"gender"`
		Age             *flexInt   `json:"age"`
		ReasonForVisit  string     `json:"reason_for_visit"`
	}
	if err := decodeArgs(raw, &args); err != nil {
		return "", err
	}

	booking, err := t.scheduler.Book(ctx, bookings.BookingRequest{
		DoctorID:        string(args.DoctorID),
		AppointmentDate: args.AppointmentDate,
		AppointmentTime: args.AppointmentTime,
		FullName:        args.FullName,
		Email:           args.Email,
		Phone:           string(args.Phone),
		Gender:          args.Gender,
		Age:             args.Age.intPtr(),
		ReasonForVisit:  args.ReasonForVisit,
	})
	if err != nil {
		switch {
		case errors.Is(err, bookings.ErrSlotTaken):
			return bookingEnvelope(false, msgSlotUnavailable, ""), nil
		case errors.Is(err, bookings.ErrInvalidBooking):
			return bookingEnvelope(false, strings.TrimPrefix(err.Error(), "bookings: "), ""), nil
		default:
			t.logger.Error("book_appointment failed", "doctor_id", string(args.DoctorID), "error", err)
			return bookingEnvelope(false, err.Error(), ""), nil
		}
	}
	return bookingEnvelope(true, msgBooked, booking.ID), nil
}

type bookingResult struct {
	Success   bool   `json:"success"`
	Message   string `json:"message"`
	BookingID string `json:"booking_id,omitempty"`
}

func bookingEnvelope(success bool, message, bookingID string) string {
	return marshalResult(bookingResult{Success: success, Message: message, BookingID: bookingID})
}

func errorJSON(message string) string {
	return marshalResult(map[string]string{"error": message})
}

func marshalResult(v any) string {
	data, err := json.Marshal(v)
	if err != nil {
		return `{"error":"failed to encode tool result"}`
	}
	return string(data)
}

func decodeArgs(raw json.RawMessage, dst any) error {
	if err := json.Unmarshal(raw, dst); err != nil {
		return fmt.Errorf("%w: decode tool arguments: %v", ErrUpstream, err)
	}
	return nil
}

// flexString accepts a JSON string or number. Models sometimes send ids and
// phone numbers unquoted.
type flexString string

func (f *flexString) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		*f = flexString(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*f = flexString(n.String())
	return nil
}

// flexInt accepts a JSON number or a numeric string.
type flexInt int

func (f *flexInt) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	v, err := strconv.ParseFloat(n.String(), 64)
	if err != nil {
		return err
	}
	*f = flexInt(v)
	return nil
}

// intPtr keeps an absent value distinct from zero.
func (f *flexInt) intPtr() *int {
	if f == nil {
		return nil
	}
	n := int(*f)
	return &n
}
