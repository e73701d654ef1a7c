package printing

import (
	"context"
	"errors"
	"os/exec"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func notFound(string) (string, error) {
	return "", exec.ErrNotFound
}

func TestChromeEngine_UnavailableWithoutBinaries(t *testing.T) {
	e := &ChromeEngine{
		LookPath:   notFound,
		Candidates: func() []string { return nil },
	}

	_, err := e.RenderPDF(context.Background(), "<p>x</p>", Scratch{Dir: t.TempDir(), Name: "job"})

	require.ErrorIs(t, err, ErrRenderEngineUnavailable)
	assert.Equal(t, "render_engine_unavailable", Kind(err))
}

func TestChromeEngine_FailingBinaryIsEngineError(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("relies on /bin/false")
	}
	falseBin, err := exec.LookPath("false")
	if err != nil {
		t.Skip("false not available")
	}

	e := &ChromeEngine{
		Timeout: 5 * time.Second,
		LookPath: func(name string) (string, error) {
			if name == "wkhtmltopdf" {
				return falseBin, nil
			}
			return "", exec.ErrNotFound
		},
		Candidates: func() []string { return nil },
	}

	_, err = e.RenderPDF(context.Background(), "<p>x</p>", Scratch{Dir: t.TempDir(), Name: "job"})

	require.ErrorIs(t, err, ErrRenderEngineFailed)
	assert.False(t, errors.Is(err, ErrRenderEngineUnavailable))
}

func TestRenderChain(t *testing.T) {
	req := sampleRequest(ModeIP)

	t.Run("without engine", func(t *testing.T) {
		r := RenderChain{}.Render(context.Background(), "<p/>", req, fixedNow, Scratch{})

		assert.Equal(t, RenderPathRaw, r.Path)
		assert.ErrorIs(t, r.PrimaryErr, ErrRenderEngineUnavailable)
		assert.NotContains(t, string(r.Data), cameraPayload)
	})

	t.Run("engine unavailable", func(t *testing.T) {
		e := &ChromeEngine{LookPath: notFound, Candidates: func() []string { return nil }}
		r := RenderChain{Engine: e}.Render(context.Background(), "<p/>", req, fixedNow, Scratch{Dir: t.TempDir(), Name: "job"})

		assert.Equal(t, RenderPathRaw, r.Path)
		assert.Error(t, r.PrimaryErr)
	})
}
