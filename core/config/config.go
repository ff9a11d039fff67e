package config

import (
	_ "embed"
	"os"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/afero"
	"sigs.k8s.io/yaml"

	"github.com/micromos/micromos/core/machine"
)

//go:embed default/config.yaml
var defaultConfigData []byte

const (
	ConfigurationName = "config.yaml"
	DiskDirName       = "disk"
	LogsDirName       = "session_logs"
	PrivateKeyName    = "private_key"
	AppLogName        = "app.log"
)

type Configuration struct {
	configFs afero.Fs

	Motd          string `json:"motd"`
	ConsolePort   int    `json:"console_port" validate:"gte=0,lte=65535"`
	ConsoleBanner string `json:"console_banner"`

	// ConsolePassword guards the network console. Empty means no password
	// is required.
	ConsolePassword string `json:"console_password"`

	Disk   Disk   `json:"disk"`
	Memory Memory `json:"memory"`
}

type Disk struct {
	// Dir is a host directory mounted as the disk root. Relative paths are
	// resolved against the configuration directory.
	Dir string `json:"dir"`

	// Image is a gzipped tar used as the disk root when Dir is empty.
	// Changes are not written back.
	Image string `json:"image"`

	// MosletDir is the on-disk directory searched first for system
	// utilities.
	MosletDir string `json:"moslet_dir" validate:"required,startswith=/"`

	// BinDir is the on-disk directory searched last for user programs.
	BinDir string `json:"bin_dir" validate:"required,startswith=/"`
}

type Memory struct {
	RAMSize     uint32 `json:"ram_size"`
	ExternTop   uint32 `json:"extern_top"`
	SystemBase  uint32 `json:"system_base"`
	DefaultLoad uint32 `json:"default_load"`
	MosletLoad  uint32 `json:"moslet_load"`
}

// Geometry converts the memory section to a machine geometry, falling back
// to the stock map when the section is absent.
func (m Memory) Geometry() machine.Geometry {
	if m.RAMSize == 0 {
		return machine.DefaultGeometry()
	}
	return machine.Geometry{
		RAMSize:     m.RAMSize,
		ExternTop:   m.ExternTop,
		SystemBase:  m.SystemBase,
		DefaultLoad: m.DefaultLoad,
		MosletLoad:  m.MosletLoad,
	}
}

// Validate the configuration for basic semantic errors.
func (c *Configuration) Validate() error {
	validate := validator.New()
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		return name
	})

	return validate.Struct(c)
}

func (c *Configuration) fs() afero.Fs {
	return c.configFs
}

// DiskDirFs returns the host directory backing the disk, or nil when the
// disk is image backed.
func (c *Configuration) DiskDirFs() afero.Fs {
	if c.Disk.Dir == "" {
		return nil
	}
	return afero.NewBasePathFs(c.fs(), c.Disk.Dir)
}

// OpenDiskImage opens the configured disk image.
func (c *Configuration) OpenDiskImage() (afero.File, error) {
	return c.fs().Open(c.Disk.Image)
}

func (c *Configuration) CreateSessionLog(name string) (afero.File, error) {
	return c.fs().Create(LogsDirName + "/" + name)
}

// PrivateKeyPem returns the bytes of the console host key.
func (c *Configuration) PrivateKeyPem() ([]byte, error) {
	return afero.ReadFile(c.fs(), PrivateKeyName)
}

// OpenAppLog opens the application log in an append only state.
func (c *Configuration) OpenAppLog() (afero.File, error) {
	return c.fs().OpenFile(AppLogName, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0600)
}

func (c *Configuration) ReadAppLog() (afero.File, error) {
	return c.fs().OpenFile(AppLogName, os.O_RDONLY, 0600)
}

func defaultConfig() *Configuration {
	var out Configuration
	if err := yaml.UnmarshalStrict(defaultConfigData, &out); err != nil {
		panic(err)
	}
	return &out
}
