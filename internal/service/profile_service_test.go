package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/classquest-api/internal/dto"
	"github.com/noah-isme/classquest-api/internal/models"
	appErrors "github.com/noah-isme/classquest-api/pkg/errors"
)

func TestProfileServiceSetupRole(t *testing.T) {
	c := newClassroom()
	c.addUser("fresh", "", "")
	svc := NewProfileService(c.guard, c.users, nil, nil)

	user, err := svc.SetupRole(context.Background(), "fresh", dto.SetupRoleRequest{Role: models.RoleStudent, Name: "Ana"})
	require.NoError(t, err)
	assert.Equal(t, models.RoleStudent, user.Role)
	assert.Equal(t, RankBananaSprout, user.Rank)
	assert.Equal(t, "Ana", c.user("fresh").Name)

	again, err := svc.SetupRole(context.Background(), "fresh", dto.SetupRoleRequest{Role: models.RoleStudent, Name: "Ana"})
	require.NoError(t, err)
	assert.Equal(t, models.RoleStudent, again.Role)

	_, err = svc.SetupRole(context.Background(), "fresh", dto.SetupRoleRequest{Role: models.RoleTeacher, Name: "Ana"})
	assertAppError(t, err, appErrors.ErrPreconditionFailed)

	_, err = svc.SetupRole(context.Background(), "fresh", dto.SetupRoleRequest{Role: "admin", Name: "Ana"})
	assertAppError(t, err, appErrors.ErrValidation)

	_, err = svc.SetupRole(context.Background(), "ghost", dto.SetupRoleRequest{Role: models.RoleStudent, Name: "Ana"})
	assertAppError(t, err, appErrors.ErrUnauthorized)
}

func TestProfileServiceExtendedProfile(t *testing.T) {
	c := newClassroom()
	c.addStudent("ana", "")
	svc := NewProfileService(c.guard, c.users, nil, nil)

	user, err := svc.SetupExtendedProfile(context.Background(), "ana", dto.ExtendedProfileRequest{
		RegistrationID: "REG-001",
		DateOfBirth:    "2011-04-09",
		Gender:         "female",
		UserClass:      "class 8",
	})
	require.NoError(t, err)
	assert.Equal(t, models.Class8, user.UserClass)
	require.NotNil(t, user.DateOfBirth)
	assert.Equal(t, 2011, user.DateOfBirth.Year())

	stored := c.user("ana")
	assert.Equal(t, "REG-001", stored.RegistrationID)
	assert.Equal(t, models.Class8, stored.UserClass)

	_, err = svc.SetupExtendedProfile(context.Background(), "ana", dto.ExtendedProfileRequest{RegistrationID: "REG-001", UserClass: "Class 8"})
	require.NoError(t, err)

	_, err = svc.SetupExtendedProfile(context.Background(), "ana", dto.ExtendedProfileRequest{RegistrationID: "REG-001", UserClass: "Class 9"})
	assertAppError(t, err, appErrors.ErrPreconditionFailed)

	_, err = svc.SetupExtendedProfile(context.Background(), "ana", dto.ExtendedProfileRequest{RegistrationID: "REG-001", UserClass: "Class 8", DateOfBirth: "09/04/2011"})
	assertAppError(t, err, appErrors.ErrValidation)
}

func TestProfileServiceMe(t *testing.T) {
	c := newClassroom()
	c.addTeacher("teacher", models.Class8)
	svc := NewProfileService(c.guard, c.users, nil, nil)

	me, err := svc.Me(context.Background(), "teacher")
	require.NoError(t, err)
	assert.Equal(t, "teacher@school.test", me.Email)

	_, err = svc.Me(context.Background(), "")
	assertAppError(t, err, appErrors.ErrUnauthorized)
}
