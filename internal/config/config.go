package config

import (
	"github.com/ilyakaznacheev/cleanenv"
	"log"
	"sync"
)

type Config struct {
	IsDebug  *bool  `yaml:"is_debug"`
	TimeZone string `yaml:"time_zone" env-default:"UTC"`
	Station  struct {
		Id                string `yaml:"id" env-default:"evstation-1"`
		Vendor            string `yaml:"vendor" env-default:"evstation"`
		Model             string `yaml:"model" env-default:"Go Station"`
		CentralSystemUrl  string `yaml:"central_system_url" env-default:"ws://localhost:5000/ws"`
		Connectors        int    `yaml:"connectors" env-default:"2"`
		PhaseType         string `yaml:"phase_type" env-default:"AC"`
		HeartbeatInterval int    `yaml:"heartbeat_interval" env-default:"600"`
	} `yaml:"station"`
	Charging struct {
		MaxStackLevel        int      `yaml:"max_stack_level" env-default:"10"`
		MaxProfiles          int      `yaml:"max_profiles" env-default:"20"`
		MaxSchedulePeriods   int      `yaml:"max_schedule_periods" env-default:"10"`
		RateUnits            []string `yaml:"rate_units" env-default:"A,W"`
		AllowNoStartSchedule bool     `yaml:"allow_no_start_schedule" env-default:"false"`
		IgnoreNoTransaction  bool     `yaml:"ignore_no_transaction" env-default:"true"`
	} `yaml:"charging"`
	Mongo struct {
		Enabled  bool   `yaml:"enabled" env-default:"false"`
		Host     string `yaml:"host" env-default:"localhost"`
		Port     string `yaml:"port" env-default:"27017"`
		User     string `yaml:"user" env-default:""`
		Password string `yaml:"password" env-default:""`
		Database string `yaml:"database" env-default:"evstation"`
	} `yaml:"mongo"`
	Metrics struct {
		Enabled bool   `yaml:"enabled" env-default:"false"`
		BindIP  string `yaml:"bind_ip" env-default:"0.0.0.0"`
		Port    string `yaml:"port" env-default:"9100"`
	} `yaml:"metrics"`
	Api struct {
		Enabled bool   `yaml:"enabled" env-default:"false"`
		BindIP  string `yaml:"bind_ip" env-default:"127.0.0.1"`
		Port    string `yaml:"port" env-default:"5001"`
	} `yaml:"api"`
}

var instance *Config
var once sync.Once

func GetConfig() (*Config, error) {
	var err error
	once.Do(func() {
		log.Println("reading config")
		instance = &Config{}
		if err = cleanenv.ReadConfig("config.yml", instance); err != nil {
			desc, _ := cleanenv.GetDescription(instance, nil)
			log.Println(desc)
			log.Println(err)
			instance = nil
		}
	})
	return instance, err
}
