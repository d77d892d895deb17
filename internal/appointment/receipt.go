package appointment

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/centrodental/clinic-scheduling/internal/identity"
)

const (
	clinicName  = "Centro Dental"
	clinicPhone = "(08) 9964 2861"
	clinicEmail = "info@centrodental.com.au"
)

// Receipt is the data behind a payment receipt. Rendering (PDF or otherwise)
// belongs to the caller.
type Receipt struct {
	AppointmentID   uuid.UUID
	ClinicName      string
	ClinicPhone     string
	ClinicEmail     string
	PatientName     string
	Service         string
	AmountCents     int64
	AppointmentDate time.Time
	PaymentDate     time.Time
	IssuedBy        string
}

// Receipt builds the receipt payload for a paid appointment. Admin only;
// available only once paymentStatus is PAID.
func (s *Service) Receipt(ctx context.Context, actor identity.Actor, id uuid.UUID) (*Receipt, error) {
	if !actor.IsAdmin() {
		return nil, ErrForbidden
	}

	detail, err := s.repo.GetDetailByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if detail.PaymentStatus != PaymentPaid {
		return nil, ErrReceiptUnavailable
	}

	var amount int64
	if detail.PaymentAmountCents != nil {
		amount = *detail.PaymentAmountCents
	}

	issuedBy := actor.Name
	if issuedBy == "" {
		issuedBy = "Admin"
	}

	patientName := detail.OccupantName()
	if patientName == "N/A" {
		patientName = "Valued Patient"
	}

	// The instant the payment was marked PAID, not the read time.
	paymentDate := detail.UpdatedAt
	if detail.PaymentUpdatedAt != nil {
		paymentDate = *detail.PaymentUpdatedAt
	}

	return &Receipt{
		AppointmentID:   detail.ID,
		ClinicName:      clinicName,
		ClinicPhone:     clinicPhone,
		ClinicEmail:     clinicEmail,
		PatientName:     patientName,
		Service:         detail.Service,
		AmountCents:     amount,
		AppointmentDate: detail.ScheduledAt,
		PaymentDate:     paymentDate,
		IssuedBy:        issuedBy,
	}, nil
}
