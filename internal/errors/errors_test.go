package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"testing"

	"vizgo/domain/core"

	"github.com/stretchr/testify/assert"
)

func TestFromDomainCodes(t *testing.T) {
	cases := []struct {
		err  error
		code string
	}{
		{core.NewUnsupportedLibraryError("bokeh"), CodeConfiguration},
		{core.NewGoalCountError(3, 2), CodeValidationError},
		{fmt.Errorf("visualize: %w", core.ErrCandidateTimeout), CodeExecution},
		{core.ErrNoRaster, CodeResource},
		{stderrors.New("disk on fire"), CodeInternalError},
	}
	for _, tc := range cases {
		got := FromDomain(tc.err)
		assert.Equal(t, tc.code, GetCode(got), tc.err.Error())
		assert.ErrorIs(t, got, tc.err)
	}
	assert.Nil(t, FromDomain(nil))
}

func TestFromDomainKeepsAppErrors(t *testing.T) {
	nf := NotFound("run")
	assert.Same(t, nf, FromDomain(nf))
	assert.Equal(t, CodeNotFound, GetCode(fmt.Errorf("lookup: %w", nf)))
}

func TestHTTPStatus(t *testing.T) {
	assert.Equal(t, http.StatusBadRequest, HTTPStatus(core.ErrEmptyDataset))
	assert.Equal(t, http.StatusBadRequest, HTTPStatus(core.NewUnsupportedLibraryError("x")))
	assert.Equal(t, http.StatusNotFound, HTTPStatus(NotFound("chart")))
	assert.Equal(t, http.StatusConflict, HTTPStatus(core.ErrNoRaster))
	assert.Equal(t, http.StatusInternalServerError, HTTPStatus(stderrors.New("x")))
}

func TestWrapKeepsCode(t *testing.T) {
	err := Wrap(ValidationError("bad"), "context")
	assert.Equal(t, CodeValidationError, GetCode(err))
	assert.Equal(t, "context: bad", err.Error())
	assert.Nil(t, Wrap(nil, "x"))
}
