package logging

import (
	"bytes"
	"strings"
	"testing"

	"go.viam.com/test"
)

func TestConsoleAppenderFormat(t *testing.T) {
	var buf bytes.Buffer
	logger := NewBlankLogger("source")
	logger.AddAppender(NewWriterAppender(&buf))

	logger.Infow("opened", "kind", "raw", "frames", 3)
	line := strings.TrimSuffix(buf.String(), "\n")
	parts := strings.Split(line, "\t")
	test.That(t, parts, test.ShouldHaveLength, 6)
	test.That(t, parts[1], test.ShouldEqual, "INFO")
	test.That(t, parts[2], test.ShouldEqual, "source")
	test.That(t, parts[3], test.ShouldStartWith, "logging/logger_test.go:")
	test.That(t, parts[4], test.ShouldEqual, "opened")
	test.That(t, parts[5], test.ShouldEqual, `{"kind":"raw","frames":3}`)
	test.That(t, strings.HasSuffix(parts[0], "Z"), test.ShouldBeTrue)

	buf.Reset()
	logger.Warn("no", " fields")
	parts = strings.Split(strings.TrimSuffix(buf.String(), "\n"), "\t")
	test.That(t, parts, test.ShouldHaveLength, 5)
	test.That(t, parts[4], test.ShouldEqual, "no fields")
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger := NewBlankLogger("")
	logger.AddAppender(NewWriterAppender(&buf))
	logger.SetLevel(WARN)
	test.That(t, logger.GetLevel(), test.ShouldEqual, WARN)

	logger.Debugf("%d", 1)
	logger.Info("two")
	test.That(t, buf.Len(), test.ShouldEqual, 0)

	logger.Errorf("frame %d", 3)
	test.That(t, buf.String(), test.ShouldContainSubstring, "ERROR")
	test.That(t, buf.String(), test.ShouldContainSubstring, "frame 3")
}

func TestSubloggerSharesAppenders(t *testing.T) {
	logger, logs := NewObservedTestLogger(t)
	sub := logger.Sublogger("raw")
	subsub := sub.Sublogger("reader")

	sub.Debugw("end of file", "index", 4)
	subsub.Warnw("end of file (garbage found)")

	test.That(t, logs.Len(), test.ShouldEqual, 2)
	entries := logs.All()
	test.That(t, entries[0].LoggerName, test.ShouldEqual, "raw")
	test.That(t, entries[0].ContextMap()["index"], test.ShouldEqual, int64(4))
	test.That(t, entries[1].LoggerName, test.ShouldEqual, "raw.reader")
	test.That(t, logs.FilterMessage("end of file").Len(), test.ShouldEqual, 1)

	sub.SetLevel(ERROR)
	sub.Warn("quiet")
	logger.Warn("loud")
	test.That(t, logs.FilterMessage("quiet").Len(), test.ShouldEqual, 0)
	test.That(t, logs.FilterMessage("loud").Len(), test.ShouldEqual, 1)
	test.That(t, logger.Sync(), test.ShouldBeNil)
}

func TestUnpairedKey(t *testing.T) {
	logger, logs := NewObservedTestLogger(t)
	logger.Errorw("oops", "path", "/tmp/x", "dangling")
	fields := logs.All()[0].ContextMap()
	test.That(t, fields["path"], test.ShouldEqual, "/tmp/x")
	test.That(t, fields["dangling"], test.ShouldEqual, "!MISSING VALUE")
}

func TestLevelFromString(t *testing.T) {
	for _, tc := range []struct {
		in   string
		want Level
	}{
		{"debug", DEBUG},
		{"INFO", INFO},
		{"warning", WARN},
		{"Error", ERROR},
	} {
		level, err := LevelFromString(tc.in)
		test.That(t, err, test.ShouldBeNil)
		test.That(t, level, test.ShouldEqual, tc.want)
	}
	_, err := LevelFromString("loud")
	test.That(t, err, test.ShouldNotBeNil)

	var level Level
	test.That(t, level.UnmarshalJSON([]byte(`"warn"`)), test.ShouldBeNil)
	test.That(t, level, test.ShouldEqual, WARN)
	out, err := ERROR.MarshalJSON()
	test.That(t, err, test.ShouldBeNil)
	test.That(t, string(out), test.ShouldEqual, `"Error"`)
}
