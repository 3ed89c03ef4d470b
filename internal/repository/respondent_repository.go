package repository

import (
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"enquete-backend/internal/model"
)

type RespondentRepository interface {
	GetByAccount(accountID uint) (*model.Respondent, error)
	GetOrCreateForAccount(account model.Account) (*model.Respondent, bool, error)
	Create(respondent *model.Respondent) error
}

type respondentRepository struct {
	db *gorm.DB
}

func NewRespondentRepository(conn *gorm.DB) RespondentRepository {
	return &respondentRepository{db: conn}
}

func (r *respondentRepository) GetByAccount(accountID uint) (*model.Respondent, error) {
	var respondent model.Respondent
	err := r.db.Preload("Technologies").Where("account_id = ?", accountID).First(&respondent).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &respondent, nil
}

// GetOrCreateForAccount returns the profile linked to account. A profile
// registered earlier with the account email and no account is linked to it.
// Otherwise a beginner profile named after the account is created, carrying
// the email only when no other profile holds it. created reports whether a
// row was inserted.
func (r *respondentRepository) GetOrCreateForAccount(account model.Account) (*model.Respondent, bool, error) {
	existing, err := r.GetByAccount(account.ID)
	if err == nil {
		return existing, false, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, false, err
	}

	accountID := account.ID
	respondent := model.Respondent{
		AccountID: &accountID,
		Name:      strings.TrimSpace(account.Username),
		Level:     model.LevelBeginner,
	}
	if respondent.Name == "" {
		respondent.Name = fmt.Sprintf("aluno-%d", account.ID)
	}

	if email := strings.TrimSpace(account.Email); email != "" {
		var byEmail model.Respondent
		err := r.db.Where("email = ?", email).First(&byEmail).Error
		switch {
		case err == nil && byEmail.AccountID == nil:
			if err := r.db.Model(&byEmail).Update("account_id", accountID).Error; err != nil {
				return nil, false, err
			}
			byEmail.AccountID = &accountID
			return &byEmail, false, nil
		case err == nil:
			// Held by another account; the new profile goes without email.
		case errors.Is(err, gorm.ErrRecordNotFound):
			respondent.Email = &email
		default:
			return nil, false, err
		}
	}

	if err := r.Create(&respondent); err != nil {
		return nil, false, err
	}
	return &respondent, true, nil
}

func (r *respondentRepository) Create(respondent *model.Respondent) error {
	return r.db.Create(respondent).Error
}
