package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/ajitpratap0/tabeval/pkg/codec"
	"github.com/ajitpratap0/tabeval/pkg/testutil"
)

// FileSuite runs eval against files in a per-suite temp directory.
type FileSuite struct {
	suite.Suite
	dir string
}

func (s *FileSuite) SetupSuite() {
	s.dir = s.T().TempDir()
}

func (s *FileSuite) path(name string) string {
	return filepath.Join(s.dir, name)
}

func (s *FileSuite) TestArrowRoundTrip() {
	in := testutil.Table(s.T(), []string{"id", "score", "debug"},
		[]any{"a", "b", "c"},
		[]any{1.5, nil, 3.0},
		[]any{true, false, true},
	)
	var payload bytes.Buffer
	s.Require().NoError(codec.WriteArrowIPC(&payload, in, "_error"))
	s.Require().NoError(os.WriteFile(s.path("in.arrow"), payload.Bytes(), 0o600))

	_, _, err := execute(s.T(), "", "--format", "arrow", "-i", s.path("in.arrow"), "-o", s.path("out.arrow"),
		"--drop", "debug", "--parallelism", "3")
	s.Require().NoError(err)

	f, err := os.Open(s.path("out.arrow"))
	s.Require().NoError(err)
	defer f.Close() //nolint:errcheck

	out, err := codec.ReadArrowIPC(f, "_error")
	s.Require().NoError(err)
	s.Equal([]string{"id", "score"}, out.Columns())
	s.Equal([]any{1.5, nil, 3.0}, testutil.Column(s.T(), out, "score"))
	s.False(out.HasFailures())
}

func (s *FileSuite) TestCSVWithErrorColumnInput() {
	s.Require().NoError(os.WriteFile(s.path("in.csv"), []byte("x,_error\n1,\n2,boom\n"), 0o600))

	_, _, err := execute(s.T(), "", "--format", "csv", "-i", s.path("in.csv"), "-o", s.path("out.csv"))
	s.Require().NoError(err)

	got, err := os.ReadFile(s.path("out.csv"))
	s.Require().NoError(err)
	s.Equal("x\n1\n2\n", string(got), "input failures are not carried into a fresh evaluation")
}

func TestFileSuite(t *testing.T) {
	suite.Run(t, new(FileSuite))
}
