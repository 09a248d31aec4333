package daemon

import (
	"bytes"
	"context"
	"log"
	"os"
	"testing"

	"github.com/hotelbey/bey/engine"
	"github.com/hotelbey/bey/http/server"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunMem(t *testing.T) {
	assert := assert.New(t)

	buffer := bytes.NewBufferString("")
	log.SetOutput(buffer)
	logOutput = buffer
	t.Cleanup(func() { logOutput = os.Stderr })

	t.Run("help", func(t *testing.T) {
		assert.Equal(0, RunMem([]string{"-h"}))
	})

	t.Run("list-conf-opts", func(t *testing.T) {
		buffer.Reset()
		assert.Equal(0, RunMem([]string{"-list-conf-opts"}))

		assert.Contains(buffer.String(), "BEY_HTTP_BIND_ADDRESS")
		assert.Contains(buffer.String(), "BEY_HTTP_READ_TIMEOUT")
		assert.Contains(buffer.String(), "BEY_HTTP_WRITE_TIMEOUT")
		assert.Contains(buffer.String(), "BEY_LOG_LEVEL")
	})

	t.Run("list-conf", func(t *testing.T) {
		buffer.Reset()
		assert.Equal(0, RunMem([]string{"-list-conf"}))

		assert.Contains(buffer.String(), "BEY_HTTP_BIND_ADDRESS=127.0.0.1:8080")
		assert.Contains(buffer.String(), "BEY_HTTP_READ_TIMEOUT=5s")
		assert.Contains(buffer.String(), "BEY_LOG_LEVEL=info")
	})

	t.Run("list-conf with env", func(t *testing.T) {
		buffer.Reset()
		assert.Equal(0, RunMem([]string{"-env", "BEY_HTTP_BIND_ADDRESS=0.0.0.0:8081", "-env", "BEY_LOG_LEVEL=debug", "-list-conf"}))

		assert.Contains(buffer.String(), "BEY_HTTP_BIND_ADDRESS=0.0.0.0:8081", "should override default value")
		assert.Contains(buffer.String(), "BEY_LOG_LEVEL=debug", "should override default value")
	})

	t.Run("returns 1 when env is invalid", func(t *testing.T) {
		buffer.Reset()
		assert.Equal(1, RunMem([]string{"-env", "X"}))

		assert.Contains(buffer.String(), `invalid value "X" for flag -env: required format <key>=<value>`)
	})

	t.Run("returns 1 when conf is invalid", func(t *testing.T) {
		buffer.Reset()
		assert.Equal(1, RunMem([]string{"-env", "BEY_LOG_LEVEL=loud", "-env", "BEY_HTTP_READ_TIMEOUT=5"}))

		assert.Contains(buffer.String(), "BEY_LOG_LEVEL=loud: ")
		assert.Contains(buffer.String(), "BEY_HTTP_READ_TIMEOUT=5: ")
	})

	t.Run("list-conf with env-file", func(t *testing.T) {
		f, err := os.CreateTemp("", "env-")
		if err != nil {
			t.Fatalf("failed to create temporary file: %v", err)
		}

		defer f.Close()
		defer os.Remove(f.Name())

		f.WriteString("# mem engine\n")
		f.WriteString("BEY_HTTP_BIND_ADDRESS=0.0.0.0:8082\n")

		buffer.Reset()
		assert.Equal(0, RunMem([]string{"-env-file", f.Name(), "-list-conf"}))

		assert.Contains(buffer.String(), "BEY_HTTP_BIND_ADDRESS=0.0.0.0:8082", "should override default value")
	})

	t.Run("returns 1 when env-file not exists", func(t *testing.T) {
		buffer.Reset()
		assert.Equal(1, RunMem([]string{"-env-file", "/tmp/bey/not-existing"}))

		assert.Contains(buffer.String(), `invalid value "/tmp/bey/not-existing" for flag -env-file`)
	})

	t.Run("returns 1 when env-file is invalid", func(t *testing.T) {
		f, err := os.CreateTemp("", "env-")
		if err != nil {
			t.Fatalf("failed to create temporary file: %v", err)
		}

		defer f.Close()
		defer os.Remove(f.Name())

		f.WriteString("X\n")

		buffer.Reset()
		assert.Equal(1, RunMem([]string{"-env-file", f.Name()}))

		assert.Contains(buffer.String(), "for flag -env-file: wrong format in line 1: required format <key>=<value>")
	})

	t.Run("version", func(t *testing.T) {
		buffer.Reset()
		assert.Equal(0, RunMem([]string{"-version"}))

		assert.Contains(buffer.String(), version)
	})
}

func TestStartMem(t *testing.T) {
	assert := assert.New(t)

	serverOptions := server.NewOptions()
	serverOptions.BindAddress = "127.0.0.1:0"
	serverOptions.ShutdownDelay = 0

	md, err := startMem(serverOptions, zerolog.Nop())
	require.NoError(t, err)

	defer md.shutdown()

	task, err := md.e.CreateTask(context.Background(), engine.CreateTaskCmd{
		TopicName: "validate-input",
		Variables: map[string]any{"first_name": "Amira"},
	})
	require.NoError(t, err)

	tasks, err := md.e.FetchAndLock(context.Background(), engine.FetchAndLockCmd{
		WorkerId: "test-worker",
		MaxTasks: 1,
		Topics: []engine.TopicCmd{
			{TopicName: "validate-input", LockDuration: 60000},
		},
	})
	require.NoError(t, err)
	require.Len(t, tasks, 1)

	assert.Equal(task.Id, tasks[0].Id)
	assert.Equal("Amira", tasks[0].Variables["first_name"])
}
