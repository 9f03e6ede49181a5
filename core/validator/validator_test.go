package validator_test

import (
	"testing"

	"interview-scheduler/core/controller"
	"interview-scheduler/core/errors"
	"interview-scheduler/core/validator"

	"github.com/stretchr/testify/require"
)

type window struct {
	Start int `json:"start" validate:"required"`
	End   int `json:"end" validate:"required,gtfield=Start"`
}

type request struct {
	IDs      []string `json:"participant_ids" validate:"required,min=1,dive,required"`
	Window   window   `json:"search_window"`
	Timezone string   `json:"timezone" validate:"omitempty,timezone"`
	Mode     string   `json:"mode" validate:"omitempty,oneof=A B"`
}

func TestValidate_OK(t *testing.T) {
	v := validator.New()
	require.NoError(t, v.Validate(&request{IDs: []string{"a"}, Window: window{Start: 1, End: 2}, Timezone: "Europe/Berlin"}))
}

func TestValidate_FieldErrors(t *testing.T) {
	v := validator.New()
	err := v.Validate(&request{Window: window{Start: 2, End: 1}, Mode: "C"})
	require.Error(t, err)

	appErr, ok := err.(*errors.AppError)
	require.True(t, ok)
	require.Equal(t, errors.ErrInvalidInput, appErr.Code)
	require.Equal(t, "participant_ids: is required", appErr.Message)

	details := appErr.Details.([]controller.ValidationError)
	fields := make([]string, 0, len(details))
	for _, d := range details {
		fields = append(fields, d.Field)
	}
	require.Equal(t, []string{"participant_ids", "search_window.end", "mode"}, fields)
	require.Equal(t, "must be after start", details[1].Message)
	require.Equal(t, "must be one of [A B]", details[2].Message)
}

func TestValidate_NotAStruct(t *testing.T) {
	err := validator.New().Validate("nope")
	require.Error(t, err)
	require.Equal(t, errors.ErrInvalidRequestData, err.(*errors.AppError).Code)
}
