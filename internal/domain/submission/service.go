package submission

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"databox/internal/domain/tempfile"
	"databox/internal/mail"
	"databox/internal/pkg/logging"
)

// FileStore is the slice of the staging store the lifecycle needs.
type FileStore interface {
	Get(ctx context.Context, id string) (*tempfile.File, error)
	Delete(ctx context.Context, id string) error
}

// Service owns the submission lifecycle: create with an out-of-band
// verification mail, resolve by code, and finalize with send-then-delete
// ordering.
type Service struct {
	repo   Repository
	files  FileStore
	mailer mail.Mailer
}

func NewService(repo Repository, files FileStore, mailer mail.Mailer) *Service {
	return &Service{repo: repo, files: files, mailer: mailer}
}

// Create inserts a fresh pending submission and mails the one-time link.
// A repeated email gets a fresh row and a fresh code. A mail failure
// propagates; the orphan row is left for the reaper.
func (s *Service) Create(ctx context.Context, email string) (string, error) {
	sub := &Submission{
		Email:     strings.TrimSpace(email),
		Code:      uuid.NewString(),
		CreatedAt: time.Now().UTC(),
	}

	if err := s.repo.Create(ctx, sub); err != nil {
		return "", fmt.Errorf("failed to create submission: %w", err)
	}

	if err := s.mailer.SendVerification(ctx, sub.Email, sub.Code); err != nil {
		return "", fmt.Errorf("failed to send verification mail: %w", err)
	}

	logging.Info("submission created", "email", sub.Email)
	return sub.Code, nil
}

// Resolve looks the code up. Unknown and claimed codes are both
// ErrSubmissionNotFound; there is no synchronous expiry check, the reaper
// is the only expiry authority.
func (s *Service) Resolve(ctx context.Context, code string) (*Submission, error) {
	sub, err := s.repo.GetByCode(ctx, code)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSubmissionNotFound
		}
		return nil, err
	}
	if sub.Claimed {
		return nil, ErrSubmissionNotFound
	}
	return sub, nil
}

// Finalize delivers the package: win the claim, bundle the staged files,
// send one delivery mail, then delete the row and the files. Any failure
// before the send completes releases the claim so the submitter can retry.
// Of two concurrent calls for the same code, exactly one wins the claim.
func (s *Service) Finalize(ctx context.Context, code, message string, fileIDs []string) error {
	won, err := s.repo.Claim(ctx, code)
	if err != nil {
		return fmt.Errorf("failed to claim submission: %w", err)
	}
	if !won {
		return ErrSubmissionNotFound
	}

	sub, err := s.repo.GetByCode(ctx, code)
	if err != nil {
		s.release(ctx, code)
		return fmt.Errorf("failed to load claimed submission: %w", err)
	}

	attachments, closeAll, err := s.openAttachments(ctx, fileIDs)
	if err != nil {
		s.release(ctx, code)
		return err
	}
	defer closeAll()

	if err := s.mailer.SendDelivery(ctx, sub.Email, message, attachments); err != nil {
		s.release(ctx, code)
		return fmt.Errorf("failed to send delivery mail: %w", err)
	}

	// The send has been accepted; only now may state be destroyed.
	if err := s.repo.Delete(ctx, sub.ID); err != nil {
		return fmt.Errorf("failed to delete submission: %w", err)
	}
	logging.Info("submission delivered", "email", sub.Email)

	for _, id := range fileIDs {
		if err := s.files.Delete(ctx, id); err != nil {
			logging.Warn("failed to delete staged file after delivery", "id", id, "err", err)
		}
	}

	return nil
}

// openAttachments fetches every referenced staged file. One missing file
// aborts the whole finalize; partial delivery is never attempted.
func (s *Service) openAttachments(ctx context.Context, fileIDs []string) ([]mail.Attachment, func(), error) {
	attachments := make([]mail.Attachment, 0, len(fileIDs))
	readers := make([]io.ReadCloser, 0, len(fileIDs))
	closeAll := func() {
		for _, rc := range readers {
			_ = rc.Close()
		}
	}

	for _, id := range fileIDs {
		f, err := s.files.Get(ctx, id)
		if err != nil {
			closeAll()
			return nil, nil, fmt.Errorf("staged file %s: %w", id, err)
		}
		rc, err := f.Open()
		if err != nil {
			closeAll()
			return nil, nil, fmt.Errorf("failed to open staged file %s: %w", id, err)
		}
		readers = append(readers, rc)
		attachments = append(attachments, mail.Attachment{
			Name:        f.Name,
			ContentType: f.ContentType,
			Reader:      rc,
		})
	}

	return attachments, closeAll, nil
}

func (s *Service) release(ctx context.Context, code string) {
	if err := s.repo.Release(ctx, code); err != nil {
		logging.Error("failed to release claimed submission", "err", err)
	}
}
