package config

import (
	"log"

	"github.com/spf13/viper"
)

type Config struct {
	Service ServiceConfig `mapstructure:"service"`
	Consul  ConsulConfig  `mapstructure:"consul"`
	Mysql   MysqlConfig   `mapstructure:"mysql"`
	Redis   RedisConfig   `mapstructure:"redis"`
	Momo    MomoConfig    `mapstructure:"momo"`
	Rabbit  RabbitConfig  `mapstructure:"rabbitmq"`
	Elastic ElasticConfig `mapstructure:"elastic"`
	Jaeger  JaegerConfig  `mapstructure:"jaeger"`
	Upload  UploadConfig  `mapstructure:"upload"`
}

type ServiceConfig struct {
	Name string `mapstructure:"name"`
	Port int    `mapstructure:"port"`
}

type ConsulConfig struct {
	Address string `mapstructure:"address"`
}

type MysqlConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DbName   string `mapstructure:"dbname"`
}

type RedisConfig struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	Db       int    `mapstructure:"db"`
}

// MomoConfig 钱包网关签名配置 (启动时显式注入，调用点不再读环境变量)
type MomoConfig struct {
	PartnerCode string `mapstructure:"partner_code"`
	AccessKey   string `mapstructure:"access_key"`
	SecretKey   string `mapstructure:"secret_key"`
	Endpoint    string `mapstructure:"endpoint"`
	ReturnURL   string `mapstructure:"return_url"`
	IpnURL      string `mapstructure:"ipn_url"`
	RequestType string `mapstructure:"request_type"`
	Lang        string `mapstructure:"lang"`
}

// RabbitConfig URL 为空则不投递事件
type RabbitConfig struct {
	URL string `mapstructure:"url"`
}

// ElasticConfig Address 为空则商品搜索退回 MySQL LIKE
type ElasticConfig struct {
	Address string `mapstructure:"address"`
	Index   string `mapstructure:"index"`
}

type JaegerConfig struct {
	Endpoint string `mapstructure:"endpoint"`
}

type UploadConfig struct {
	Dir string `mapstructure:"dir"`
}

// LoadConfig 读取配置文件
func LoadConfig(path string) (*Config, error) {
	viper.AddConfigPath(path)
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")

	if err := viper.ReadInConfig(); err != nil {
		return nil, err
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, err
	}

	log.Printf("Config loaded successfully from %s", path)
	return &config, nil
}
