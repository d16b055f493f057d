package services

import (
	"context"
	"strings"
	"unicode/utf8"

	"eventhub/apperror"
	"eventhub/models"
)

type ProfileService struct {
	users models.UserRepository
}

func NewProfileService(users models.UserRepository) *ProfileService {
	return &ProfileService{users: users}
}

// ProfileUpdate is a partial update: absent keys are left alone, a null phone clears it.
type ProfileUpdate struct {
	FirstName models.Optional[string] `json:"first_name"`
	LastName  models.Optional[string] `json:"last_name"`
	Phone     models.Optional[string] `json:"phone"`
}

func (s *ProfileService) Get(ctx context.Context, userID int64) (*models.User, error) {
	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, notFound(err, msgUserNotFound)
	}
	return u, nil
}

func checkName(field string, v models.Optional[string], fields []apperror.FieldError) []apperror.FieldError {
	switch {
	case !v.Set:
	case v.Null:
		fields = append(fields, apperror.FieldError{Field: field, Message: "This field may not be null."})
	case utf8.RuneCountInString(v.Value) > 150:
		fields = append(fields, apperror.FieldError{Field: field, Message: "Ensure this field has no more than 150 characters."})
	}
	return fields
}

func (s *ProfileService) Update(ctx context.Context, userID int64, req ProfileUpdate) (*models.User, error) {
	var fields []apperror.FieldError
	fields = checkName("first_name", req.FirstName, fields)
	fields = checkName("last_name", req.LastName, fields)
	if req.Phone.HasValue() && utf8.RuneCountInString(req.Phone.Value) > 15 {
		fields = append(fields, apperror.FieldError{Field: "phone", Message: "Ensure this field has no more than 15 characters."})
	}
	if len(fields) > 0 {
		return nil, apperror.NewValidation("Invalid input.", fields...)
	}

	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, notFound(err, msgUserNotFound)
	}
	if req.FirstName.Set {
		u.FirstName = req.FirstName.Value
	}
	if req.LastName.Set {
		u.LastName = req.LastName.Value
	}

	var profile *models.UserProfile
	if req.Phone.Set {
		phone := req.Phone.Ptr()
		if phone != nil && strings.TrimSpace(*phone) == "" {
			phone = nil
		}
		profile = &models.UserProfile{UserID: u.ID, Phone: phone}
	}
	if err := s.users.UpdateProfile(ctx, u, profile); err != nil {
		return nil, notFound(err, msgUserNotFound)
	}
	return u, nil
}
