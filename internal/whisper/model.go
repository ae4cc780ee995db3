package whisper

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"sync"

	"go.uber.org/zap"
)

// DefaultSize is the model used when WHISPER_MODEL is not set.
const DefaultSize = "tiny"

// Compute devices the gateway knows how to configure.
const (
	DeviceCPU   = "cpu"
	DeviceCUDA  = "cuda"
	DeviceMetal = "metal"
)

// sizeRegistry maps model size identifiers to their ggml weight files.
// CPU runs use the int8-quantized weights; accelerators keep full f16.
var sizeRegistry = map[string]struct {
	File      string
	QuantFile string
}{
	"tiny":     {File: "ggml-tiny.bin", QuantFile: "ggml-tiny-q8_0.bin"},
	"base":     {File: "ggml-base.bin", QuantFile: "ggml-base-q8_0.bin"},
	"small":    {File: "ggml-small.bin", QuantFile: "ggml-small-q8_0.bin"},
	"medium":   {File: "ggml-medium.bin", QuantFile: "ggml-medium-q8_0.bin"},
	"large-v3": {File: "ggml-large-v3.bin", QuantFile: "ggml-large-v3-q8_0.bin"},
}

// Sizes lists the known model size identifiers.
func Sizes() []string {
	names := make([]string, 0, len(sizeRegistry))
	for name := range sizeRegistry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// KnownSize reports whether name is a registered model size.
func KnownSize(name string) bool {
	_, ok := sizeRegistry[strings.TrimSpace(name)]
	return ok
}

// KnownDevice reports whether name is a supported compute device.
func KnownDevice(name string) bool {
	switch strings.TrimSpace(name) {
	case DeviceCPU, DeviceCUDA, DeviceMetal:
		return true
	default:
		return false
	}
}

// ManagerConfig describes how the one shared model instance is built.
type ManagerConfig struct {
	CLI      string
	Size     string
	ModelDir string
	Device   string
	Threads  int
}

// Handle is the resolved, read-only model instance shared by all requests.
type Handle struct {
	CLIPath   string
	ModelPath string
	Size      string
	Device    string
	Threads   int
	NoGPU     bool
}

// Manager owns the lazy, one-time construction of the model Handle.
// The sync.Once gate means two concurrent first callers cannot both
// construct; a construction failure is cached and returned to everyone.
type Manager struct {
	cfg ManagerConfig
	log *zap.Logger

	once   sync.Once
	handle *Handle
	err    error
}

func NewManager(cfg ManagerConfig, log *zap.Logger) *Manager {
	if log == nil {
		log = zap.NewNop()
	}
	return &Manager{cfg: cfg, log: log}
}

// Acquire returns the shared model handle, constructing it on first use.
func (m *Manager) Acquire() (*Handle, error) {
	m.once.Do(m.load)
	return m.handle, m.err
}

func (m *Manager) load() {
	cli := strings.TrimSpace(m.cfg.CLI)
	if cli == "" {
		cli = "whisper-cli"
	}
	cliPath, err := exec.LookPath(cli)
	if err != nil {
		m.err = fmt.Errorf("whisper CLI not found (%s): %w", cli, err)
		return
	}

	size := strings.TrimSpace(m.cfg.Size)
	if size == "" {
		size = DefaultSize
	}
	entry, ok := sizeRegistry[size]
	if !ok {
		m.err = fmt.Errorf("unknown whisper model size %q (known: %s)", size, strings.Join(Sizes(), ", "))
		return
	}

	device := strings.TrimSpace(m.cfg.Device)
	if device == "" {
		device = DeviceCPU
	}
	if !KnownDevice(device) {
		m.err = fmt.Errorf("unknown whisper device %q", device)
		return
	}

	file := entry.File
	if device == DeviceCPU {
		file = entry.QuantFile
	}
	modelPath := filepath.Join(m.cfg.ModelDir, file)
	if !filepath.IsAbs(modelPath) {
		if wd, err := os.Getwd(); err == nil {
			modelPath = filepath.Join(wd, modelPath)
		}
	}
	if _, err := os.Stat(modelPath); err != nil {
		m.err = fmt.Errorf("whisper model weights not found: %s", modelPath)
		return
	}

	m.log.Info("whisper model loaded",
		zap.String("size", size),
		zap.String("device", device),
		zap.String("model_path", modelPath))

	m.handle = &Handle{
		CLIPath:   cliPath,
		ModelPath: modelPath,
		Size:      size,
		Device:    device,
		Threads:   pickThreads(m.cfg.Threads),
		NoGPU:     device == DeviceCPU,
	}
}

func pickThreads(threads int) int {
	if threads > 0 {
		return threads
	}
	n := runtime.NumCPU()
	if n > 8 {
		n = 8
	}
	if n < 2 {
		n = 2
	}
	return n
}
