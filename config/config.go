package config

import (
	"os"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	jsoniter "github.com/json-iterator/go"
	"github.com/pkg/errors"

	"github.com/abihf/faceguard/face"
	"github.com/abihf/faceguard/protocol"
	"github.com/abihf/faceguard/validate"
)

const DefaultFile = "/etc/faceguard/config.json"

type Detector struct {
	// Kind is "dlib" for the in-process recognizer or "remote" for a
	// websocket detection service.
	Kind     string   `json:"kind" validate:"oneof=dlib remote"`
	ModelDir string   `json:"model_dir" validate:"required_if=Kind dlib"`
	URL      string   `json:"url" validate:"omitempty,url"`
	Timeout  Duration `json:"timeout"`
}

type Config struct {
	Device        string `json:"device" validate:"required"`
	Width         int    `json:"width" validate:"gte=0"`
	Height        int    `json:"height" validate:"gte=0"`
	Format        string `json:"format" validate:"oneof=gray jpeg"`
	// Orientation of the sensor relative to the upright picture.
	Orientation   string `json:"orientation" validate:"oneof=up down left right up_mirrored"`
	CheckExposure bool   `json:"check_exposure"`

	Detector   Detector            `json:"detector"`
	Thresholds validate.Thresholds `json:"thresholds"`

	Region     *face.Rect `json:"region"`
	ViewWidth  float64    `json:"view_width" validate:"gte=0"`
	ViewHeight float64    `json:"view_height" validate:"gte=0"`

	Socket  string `json:"socket" validate:"required"`
	PidFile string `json:"pid_file" validate:"required"`
	CPUCore *int   `json:"cpu_core,omitempty" validate:"omitempty,gte=0"`

	LogLevel string `json:"log_level" validate:"omitempty,oneof=trace debug info warn warning error"`
	LogFile  string `json:"log_file"`
}

// Duration is a time.Duration written as "1.5s" in JSON.
type Duration struct {
	time.Duration
}

func (d Duration) MarshalJSON() ([]byte, error) {
	return jsoniter.Marshal(d.String())
}

func (d *Duration) UnmarshalJSON(b []byte) error {
	var s string
	if err := jsoniter.Unmarshal(b, &s); err != nil {
		return errors.Wrap(err, "duration must be a string")
	}
	v, err := time.ParseDuration(s)
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

// Load reads the config file at path, applies FACEGUARD_* environment
// overrides (a .env file in the working directory is honoured) and fills
// defaults. A missing file is not an error.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, errors.Wrap(err, "Can not load .env")
	}
	if env := os.Getenv("FACEGUARD_CONFIG"); env != "" {
		path = env
	}

	conf, err := loadFromFile(path)
	if err != nil {
		if !os.IsNotExist(errors.Cause(err)) {
			return nil, err
		}
		conf = &Config{}
	}

	if err := conf.applyEnv(); err != nil {
		return nil, err
	}
	conf.applyDefaults()

	if err := conf.Validate(); err != nil {
		return nil, err
	}
	return conf, nil
}

func loadFromFile(path string) (*Config, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	defer file.Close()

	config := &Config{}
	err = jsoniter.NewDecoder(file).Decode(config)
	if err != nil {
		return nil, errors.Wrapf(err, "Can not parse %s", path)
	}

	return config, nil
}

func (c *Config) applyEnv() error {
	setString := func(key string, dst *string) {
		if v, ok := os.LookupEnv(key); ok {
			*dst = v
		}
	}
	setString("FACEGUARD_DEVICE", &c.Device)
	setString("FACEGUARD_ORIENTATION", &c.Orientation)
	setString("FACEGUARD_SOCKET", &c.Socket)
	setString("FACEGUARD_PID_FILE", &c.PidFile)
	setString("FACEGUARD_DETECTOR", &c.Detector.Kind)
	setString("FACEGUARD_MODEL_DIR", &c.Detector.ModelDir)
	setString("FACEGUARD_DETECTOR_URL", &c.Detector.URL)
	setString("FACEGUARD_LOG_LEVEL", &c.LogLevel)
	setString("FACEGUARD_LOG_FILE", &c.LogFile)

	if v, ok := os.LookupEnv("FACEGUARD_CPU_CORE"); ok {
		core, err := strconv.Atoi(v)
		if err != nil {
			return errors.Wrap(err, "FACEGUARD_CPU_CORE")
		}
		c.CPUCore = &core
	}
	return nil
}

func (c *Config) applyDefaults() {
	if c.Format == "" {
		c.Format = "gray"
	}
	if c.Orientation == "" {
		c.Orientation = "up"
	}
	if c.Width == 0 || c.Height == 0 {
		c.Width, c.Height = 640, 480
	}
	if c.Detector.Kind == "" {
		c.Detector.Kind = "dlib"
	}
	if c.Detector.Kind == "dlib" && c.Detector.ModelDir == "" {
		c.Detector.ModelDir = "/usr/share/faceguard"
	}
	if c.Detector.Timeout.Duration == 0 {
		c.Detector.Timeout.Duration = 2 * time.Second
	}

	c.Thresholds = c.Thresholds.WithDefaults()

	if c.Socket == "" {
		c.Socket = protocol.DefaultSocket
	}
	if c.PidFile == "" {
		c.PidFile = "/run/faceguard/faceguard.pid"
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
}

var checker = validator.New(validator.WithRequiredStructEnabled())

func (c *Config) Validate() error {
	if err := checker.Struct(c); err != nil {
		return errors.Wrap(err, "invalid config")
	}
	if c.Detector.Kind == "remote" && c.Detector.URL == "" {
		return errors.Errorf("invalid config: detector url is required for the remote detector")
	}
	if c.Region != nil && (c.Region.Width <= 0 || c.Region.Height <= 0) {
		return errors.Errorf("invalid config: region must have a positive size")
	}
	return nil
}

// Layout is the initial legal region, or nil when none is configured.
func (c *Config) Layout() *face.Layout {
	if c.Region == nil && c.ViewWidth == 0 && c.ViewHeight == 0 {
		return nil
	}
	return &face.Layout{Region: c.Region, ViewWidth: c.ViewWidth, ViewHeight: c.ViewHeight}
}
