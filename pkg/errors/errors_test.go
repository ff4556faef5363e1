// Package errors_test provides unit tests for the AppError type, factory
// functions, and error-chain helpers defined in pkg/errors/errors.go.
package errors_test

import (
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/turtacn/plexnet/pkg/errors"
)

// ─────────────────────────────────────────────────────────────────────────────
// TestNew
// ─────────────────────────────────────────────────────────────────────────────

func TestNew_FieldsAreSetCorrectly(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name    string
		code    errors.ErrorCode
		message string
	}{
		{"internal error", errors.CodeInternal, "unexpected failure"},
		{"not simple", errors.ErrCodeNotSimpleGraph, "site bound twice"},
		{"invalid param", errors.CodeInvalidParam, "mol name must not be empty"},
		{"missing kinetics", errors.ErrCodeMissingKinetics, "A.s with B.t"},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			ae := errors.New(tc.code, tc.message)

			require.NotNil(t, ae)
			assert.Equal(t, tc.code, ae.Code)
			assert.Equal(t, tc.message, ae.Message)
			assert.Empty(t, ae.Detail)
			assert.Nil(t, ae.Cause)
			assert.NotEmpty(t, ae.Stack)
		})
	}
}

func TestNewf_FormatsMessage(t *testing.T) {
	ae := errors.Newf(errors.ErrCodeIndexOutOfRange, "mol %d out of %d", 4, 3)
	assert.Equal(t, "mol 4 out of 3", ae.Message)
}

func TestError_Format(t *testing.T) {
	ae := errors.New(errors.ErrCodeUnknownMol, "unknown mol")
	assert.Equal(t, "[MOL_005] unknown mol", ae.Error())

	withDetail := ae.WithDetail("name=Ste5")
	assert.Equal(t, "[MOL_005] unknown mol: name=Ste5", withDetail.Error())

	withCause := withDetail.WithCause(fmt.Errorf("boom"))
	assert.Equal(t, "[MOL_005] unknown mol: name=Ste5: boom", withCause.Error())
}

func TestWithDetail_DoesNotMutateReceiver(t *testing.T) {
	orig := errors.New(errors.CodeInternal, "x")
	clone := orig.WithDetailf("n=%d", 3)

	assert.Empty(t, orig.Detail)
	assert.Equal(t, "n=3", clone.Detail)
}

func TestNilReceiver_BuildersReturnNil(t *testing.T) {
	var ae *errors.AppError
	assert.Nil(t, ae.WithDetail("x"))
	assert.Nil(t, ae.WithCause(fmt.Errorf("y")))
	assert.Equal(t, errors.CategoryNone, ae.Category())
}

// ─────────────────────────────────────────────────────────────────────────────
// TestWrap
// ─────────────────────────────────────────────────────────────────────────────

func TestWrap_NilReturnsNil(t *testing.T) {
	assert.Nil(t, errors.Wrap(nil, errors.CodeInternal, "never"))
}

func TestWrap_PreservesCodeOnUnknown(t *testing.T) {
	inner := errors.New(errors.ErrCodeNotSimpleGraph, "inner")
	outer := errors.Wrap(inner, errors.CodeUnknown, "while building family")

	require.NotNil(t, outer)
	assert.Equal(t, errors.ErrCodeNotSimpleGraph, outer.Code)
	assert.True(t, stderrors.Is(outer, inner))
}

func TestWrap_OverridesCode(t *testing.T) {
	inner := fmt.Errorf("dial tcp: refused")
	outer := errors.Wrap(inner, errors.ErrCodeCatalogConnect, "redis")

	assert.Equal(t, errors.ErrCodeCatalogConnect, outer.Code)
	assert.Equal(t, inner, stderrors.Unwrap(outer))
}

// ─────────────────────────────────────────────────────────────────────────────
// Chain inspection
// ─────────────────────────────────────────────────────────────────────────────

func TestIsCode_TraversesChain(t *testing.T) {
	inner := errors.New(errors.ErrCodeMissingKinetics, "A.s/B.t")
	wrapped := fmt.Errorf("expansion step: %w", errors.Wrap(inner, errors.ErrCodeInternal, "family"))

	assert.True(t, errors.IsCode(wrapped, errors.ErrCodeMissingKinetics))
	assert.True(t, errors.IsCode(wrapped, errors.ErrCodeInternal))
	assert.False(t, errors.IsCode(wrapped, errors.ErrCodeUnknownMol))
	assert.False(t, errors.IsCode(nil, errors.ErrCodeUnknownMol))
}

func TestGetCode(t *testing.T) {
	assert.Equal(t, errors.CodeOK, errors.GetCode(nil))
	assert.Equal(t, errors.CodeUnknown, errors.GetCode(fmt.Errorf("plain")))
	assert.Equal(t, errors.ErrCodeEmptyGraph, errors.GetCode(errors.New(errors.ErrCodeEmptyGraph, "x")))
}

func TestCategoryHelpers(t *testing.T) {
	structural := errors.New(errors.ErrCodeNotSimpleGraph, "x")
	internal := errors.New(errors.ErrCodeDisconnectedPattern, "y")

	assert.True(t, errors.IsStructural(structural))
	assert.False(t, errors.IsInternal(structural))
	assert.True(t, errors.IsInternal(internal))
	assert.False(t, errors.IsStructural(internal))
	assert.Equal(t, errors.CategoryNone, errors.GetCategory(nil))
	assert.Equal(t, errors.CategoryInternalConsistency, errors.GetCategory(fmt.Errorf("plain")))
}
