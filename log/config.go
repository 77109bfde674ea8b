package log

import (
	"github.com/rs/zerolog"

	"github.com/kochabx/curvebox/log/writer"
)

// 输出目标
const (
	OutputConsole = "console"
	OutputFile    = "file"
	OutputMulti   = "multi"
)

// Config 日志配置，对应配置文件中的 log 段
type Config struct {
	Level  string     `json:"level" mapstructure:"level" default:"info" validate:"oneof=trace debug info warn error fatal panic disabled"`
	Format string     `json:"format" mapstructure:"format" default:"console" validate:"oneof=console json"`
	Output string     `json:"output" mapstructure:"output" default:"console" validate:"oneof=console file multi"`
	Caller bool       `json:"caller" mapstructure:"caller"`
	File   FileConfig `json:"file" mapstructure:"file"`

	// DisableRedact 关闭内置的密钥脱敏规则
	DisableRedact bool `json:"disable_redact" mapstructure:"disable_redact"`
}

// FileConfig 日志文件配置
type FileConfig struct {
	Filepath         string            `json:"filepath" mapstructure:"filepath" default:"log"`
	Filename         string            `json:"filename" mapstructure:"filename" default:"curvebox"`
	FileExt          string            `json:"file_ext" mapstructure:"file_ext" default:"log"`
	RotateMode       writer.RotateMode `json:"rotate_mode" mapstructure:"rotate_mode"`
	RotatelogsConfig RotatelogsConfig  `json:"rotatelogs_config" mapstructure:"rotatelogs_config"`
	LumberjackConfig LumberjackConfig  `json:"lumberjack_config" mapstructure:"lumberjack_config"`
}

// RotatelogsConfig 按时间轮转配置
type RotatelogsConfig struct {
	MaxAge       int `json:"max_age" mapstructure:"max_age" default:"24"`
	RotationTime int `json:"rotation_time" mapstructure:"rotation_time" default:"1"`
}

// LumberjackConfig 按大小轮转配置
type LumberjackConfig struct {
	MaxSize    int  `json:"max_size" mapstructure:"max_size" default:"100"`
	MaxBackups int  `json:"max_backups" mapstructure:"max_backups" default:"5"`
	MaxAge     int  `json:"max_age" mapstructure:"max_age" default:"30"`
	Compress   bool `json:"compress" mapstructure:"compress" default:"false"`
}

// level 解析日志级别，空串或非法值回退到 info
func (c *Config) level() zerolog.Level {
	lvl, err := zerolog.ParseLevel(c.Level)
	if err != nil || c.Level == "" {
		return zerolog.InfoLevel
	}
	return lvl
}

// toWriterConfig 转换为 writer.RotateConfig
func (c *FileConfig) toWriterConfig() writer.RotateConfig {
	return writer.RotateConfig{
		Filepath: c.Filepath,
		Filename: c.Filename,
		FileExt:  c.FileExt,
		Mode:     c.RotateMode,
		TimeRotateConfig: writer.TimeRotateConfig{
			MaxAge:       c.RotatelogsConfig.MaxAge,
			RotationTime: c.RotatelogsConfig.RotationTime,
		},
		SizeRotateConfig: writer.SizeRotateConfig{
			MaxSize:    c.LumberjackConfig.MaxSize,
			MaxBackups: c.LumberjackConfig.MaxBackups,
			MaxAge:     c.LumberjackConfig.MaxAge,
			Compress:   c.LumberjackConfig.Compress,
		},
	}
}
