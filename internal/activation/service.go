package activation

import (
	"context"
	"crypto/rand"
	"fmt"
	"strings"
	"time"

	"github.com/Omarrawas/Atmetny1/internal/models"
	"github.com/Omarrawas/Atmetny1/pkg/logger"
	"github.com/Omarrawas/Atmetny1/pkg/metrics"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

var log = logger.Named("activation")

// Service checks and redeems activation codes.
type Service struct {
	store    Store
	validate *validator.Validate
	now      func() time.Time
}

func NewService(store Store) *Service {
	return &Service{store: store, validate: validator.New(), now: func() time.Time { return time.Now().UTC() }}
}

func invalid(reason, msg string) *CheckResult {
	metrics.ActivationChecks.WithLabelValues(reason).Inc()
	return &CheckResult{IsValid: false, Message: msg, Reason: reason}
}

// Check validates a code the student typed without redeeming it. The error is
// non-nil only for storage failures.
func (s *Service) Check(ctx context.Context, encodedValue string) (*CheckResult, error) {
	value := strings.TrimSpace(encodedValue)
	if value == "" {
		return invalid(CodeEmpty, msgEmpty), nil
	}
	c, err := s.store.FindByValue(ctx, value)
	if err != nil {
		metrics.ActivationChecks.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("find code: %w", err)
	}
	now := s.now()
	switch {
	case c == nil:
		return invalid(CodeNotFound, msgCheckNotFound), nil
	case !c.IsActive:
		return invalid(CodeInactive, msgCheckInactive), nil
	case c.IsUsed:
		return invalid(CodeUsed, msgUsed), nil
	case !c.ValidFrom.IsZero() && now.Before(c.ValidFrom):
		return invalid(CodeNotYetValid, fmt.Sprintf(msgNotYetValid, FormatArabicDate(c.ValidFrom))), nil
	case now.After(c.ValidUntil):
		return invalid(CodeExpired, msgExpired), nil
	}

	needsChoice := NeedsSubjectChoice(c.Type)
	msg := msgValid
	if needsChoice {
		msg = msgValidChoose
	}
	metrics.ActivationChecks.WithLabelValues("valid").Inc()
	return &CheckResult{
		IsValid:            true,
		Message:            msg,
		NeedsSubjectChoice: needsChoice,
		CodeDetails: &CodeDetails{
			ID:           c.ID,
			EncodedValue: c.EncodedValue,
			Name:         c.Name,
			Type:         c.Type,
			ValidUntil:   c.ValidUntil,
			SubjectID:    nonEmpty(c.SubjectID),
			SubjectName:  nonEmpty(c.SubjectName),
		},
	}, nil
}

func nonEmpty(p *string) *string {
	return models.StringPtr(strings.TrimSpace(models.StringValue(p)))
}

// Confirm redeems a code for the user. Marking the code used, attaching the
// subscription and appending the activation log happen in one transaction.
// Business failures are returned as *Error.
func (s *Service) Confirm(ctx context.Context, in Confirmation) (*ConfirmationResult, error) {
	if in.UserID == "" || in.Email == "" || in.CodeID == "" || in.CodeType == "" {
		metrics.ActivationConfirms.WithLabelValues(CodeIncompletePayload).Inc()
		return nil, newError(CodeIncompletePayload, msgIncomplete)
	}

	var (
		planName    string
		endDate     time.Time
		subjectName *string
	)
	err := s.store.RunInTx(ctx, func(ctx context.Context, tx Tx) error {
		c, err := tx.CodeByID(ctx, in.CodeID)
		if err != nil {
			return fmt.Errorf("read code %s: %w", in.CodeID, err)
		}
		now := s.now()
		switch {
		case c == nil:
			return newError(CodeNotFound, msgConfirmNotFound)
		case !c.IsActive:
			return newError(CodeInactive, msgConfirmInactive)
		case c.IsUsed:
			return newError(CodeUsed, msgUsed)
		case now.After(c.ValidUntil):
			return newError(CodeExpired, msgExpired)
		case NeedsSubjectChoice(c.Type) && (in.ChosenSubjectID == "" || in.ChosenSubjectName == ""):
			return newError(CodeSubjectRequired, msgSubjectRequired)
		}

		subjectID := models.StringPtr(in.ChosenSubjectID)
		if subjectID == nil {
			subjectID = nonEmpty(c.SubjectID)
		}
		subjectName = models.StringPtr(in.ChosenSubjectName)
		if subjectName == nil {
			subjectName = nonEmpty(c.SubjectName)
		}

		if err := tx.MarkUsed(ctx, c.ID, Usage{UserID: in.UserID, UsedAt: now, UsedForSubjectID: subjectID}); err != nil {
			return err
		}

		planName = PlanName(c.Type, models.StringValue(nonEmpty(c.SubjectName)), in.ChosenSubjectName)
		endDate = c.ValidUntil
		sub := models.SubscriptionDetails{
			PlanID:           c.Type,
			PlanName:         planName,
			StartDate:        now,
			EndDate:          c.ValidUntil,
			Status:           models.SubscriptionActive,
			ActivationCodeID: c.ID,
			SubjectID:        subjectID,
			SubjectName:      subjectName,
		}
		if err := tx.AttachSubscription(ctx, in.UserID, in.Email, sub, now); err != nil {
			return fmt.Errorf("attach subscription: %w", err)
		}

		return tx.AppendLog(ctx, &Log{
			ID:          uuid.NewString(),
			UserID:      in.UserID,
			CodeID:      c.ID,
			SubjectID:   subjectID,
			Email:       in.Email,
			CodeType:    c.Type,
			PlanName:    planName,
			ActivatedAt: now,
		})
	})
	if err != nil {
		if e, ok := AsError(err); ok {
			metrics.ActivationConfirms.WithLabelValues(e.Code).Inc()
			log.Infof("code %s rejected for user %s: %s", in.CodeID, in.UserID, e.Code)
			return nil, e
		}
		metrics.ActivationConfirms.WithLabelValues("error").Inc()
		log.Errorf("confirm code %s for user %s: %v", in.CodeID, in.UserID, err)
		return nil, fmt.Errorf("confirm activation: %w", err)
	}

	metrics.ActivationConfirms.WithLabelValues("success").Inc()
	log.Infof("code %s redeemed by user %s (%s)", in.CodeID, in.UserID, planName)
	date := FormatArabicDate(endDate)
	msg := fmt.Sprintf(successGeneral, date)
	if subjectName != nil {
		msg = fmt.Sprintf(successWithSubject, *subjectName, date)
	}
	return &ConfirmationResult{
		Success:             true,
		Message:             msg,
		ActivatedPlanName:   planName,
		SubscriptionEndDate: endDate,
	}, nil
}

const codeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

// newEncodedValue returns a random value in the form XXXX-XXXX-XXXX.
func newEncodedValue() (string, error) {
	b := make([]byte, 12)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	var sb strings.Builder
	for i, v := range b {
		if i > 0 && i%4 == 0 {
			sb.WriteByte('-')
		}
		sb.WriteByte(codeAlphabet[int(v)%len(codeAlphabet)])
	}
	return sb.String(), nil
}

// Generate creates a batch of unused, active codes.
func (s *Service) Generate(ctx context.Context, req GenerateRequest) ([]*Code, error) {
	now := s.now()
	if req.ValidFrom.IsZero() {
		req.ValidFrom = now
	}
	if err := s.validate.Struct(req); err != nil {
		return nil, err
	}
	name := req.Name
	if name == "" {
		name = PlanName(req.Type, req.SubjectName, "")
	}
	codes := make([]*Code, 0, req.Count)
	seen := map[string]bool{}
	for len(codes) < req.Count {
		v, err := newEncodedValue()
		if err != nil {
			return nil, fmt.Errorf("generate code value: %w", err)
		}
		if seen[v] {
			continue
		}
		seen[v] = true
		codes = append(codes, &Code{
			ID:           uuid.NewString(),
			EncodedValue: v,
			Name:         name,
			Type:         req.Type,
			IsActive:     true,
			SubjectID:    models.StringPtr(req.SubjectID),
			SubjectName:  models.StringPtr(req.SubjectName),
			ValidFrom:    req.ValidFrom,
			ValidUntil:   req.ValidUntil,
			CreatedAt:    now,
			UpdatedAt:    now,
		})
	}
	if err := s.store.Insert(ctx, codes); err != nil {
		return nil, fmt.Errorf("insert codes: %w", err)
	}
	log.Infof("generated %d codes of type %s", len(codes), req.Type)
	return codes, nil
}

func (s *Service) List(ctx context.Context, f ListFilter) ([]*Code, error) {
	return s.store.List(ctx, f)
}

// Deactivate disables a code so it can no longer be redeemed.
func (s *Service) Deactivate(ctx context.Context, id string) error {
	if err := s.store.Deactivate(ctx, id, s.now()); err != nil {
		return fmt.Errorf("deactivate %s: %w", id, err)
	}
	return nil
}
