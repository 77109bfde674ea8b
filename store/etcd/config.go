package etcd

import (
	"time"

	"github.com/creasty/defaults"
)

// Config ETCD 配置
type Config struct {
	Endpoints           []string      `json:"endpoints" mapstructure:"endpoints" default:"[\"localhost:2379\"]"`
	Username            string        `json:"username" mapstructure:"username"`
	Password            string        `json:"password" mapstructure:"password"`
	DialTimeout         time.Duration `json:"dial_timeout" mapstructure:"dial_timeout" default:"5s"`
	KeepAliveTime       time.Duration `json:"keep_alive_time" mapstructure:"keep_alive_time" default:"30s"`
	KeepAliveTimeout    time.Duration `json:"keep_alive_timeout" mapstructure:"keep_alive_timeout" default:"5s"`
	AutoSyncInterval    time.Duration `json:"auto_sync_interval" mapstructure:"auto_sync_interval"`
	RequestTimeout      time.Duration `json:"request_timeout" mapstructure:"request_timeout" default:"5s"`
	MaxSendMsgSize      int           `json:"max_send_msg_size" mapstructure:"max_send_msg_size" default:"2097152"` // 2MB
	MaxRecvMsgSize      int           `json:"max_recv_msg_size" mapstructure:"max_recv_msg_size" default:"4194304"` // 4MB
	RejectOldCluster    bool          `json:"reject_old_cluster" mapstructure:"reject_old_cluster"`
	PermitWithoutStream bool          `json:"permit_without_stream" mapstructure:"permit_without_stream"`
}

func (c *Config) init() error {
	return defaults.Set(c)
}
