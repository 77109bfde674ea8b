package db

import (
	"net"
	"net/url"
	"strconv"
	"time"

	gomysql "github.com/go-sql-driver/mysql"

	"github.com/kochabx/curvebox/errors"
)

// Driver 数据库驱动
type Driver string

const (
	DriverSQLite   Driver = "sqlite"
	DriverPostgres Driver = "postgres"
	DriverMySQL    Driver = "mysql"
)

// Config 对应配置文件中的 database 段，只读取 Driver 对应的子段
type Config struct {
	Driver Driver `json:"driver" mapstructure:"driver" default:"sqlite" validate:"oneof=sqlite postgres mysql"`
	// Level GORM 日志级别：silent、error、warn、info
	Level string `json:"level" mapstructure:"level" default:"silent"`
	// SlowQuery 慢查询阈值，0 不记录
	SlowQuery      time.Duration `json:"slow_query" mapstructure:"slow_query" default:"200ms"`
	ConnectTimeout time.Duration `json:"connect_timeout" mapstructure:"connect_timeout" default:"10s"`
	Pool           Pool          `json:"pool" mapstructure:"pool"`

	SQLite   SQLite   `json:"sqlite" mapstructure:"sqlite"`
	Postgres Postgres `json:"postgres" mapstructure:"postgres"`
	MySQL    MySQL    `json:"mysql" mapstructure:"mysql"`
}

// Pool 连接池，零值字段取驱动的默认值
type Pool struct {
	MaxIdle     int           `json:"max_idle" mapstructure:"max_idle"`
	MaxOpen     int           `json:"max_open" mapstructure:"max_open"`
	MaxLifetime time.Duration `json:"max_lifetime" mapstructure:"max_lifetime"`
	MaxIdleTime time.Duration `json:"max_idle_time" mapstructure:"max_idle_time"`
}

func (p Pool) withDefaults(d Driver) Pool {
	def := Pool{MaxIdle: 10, MaxOpen: 100, MaxLifetime: time.Hour, MaxIdleTime: 10 * time.Minute}
	if d == DriverSQLite {
		// 单文件，写入只能串行
		def.MaxIdle, def.MaxOpen = 1, 1
	}
	if p.MaxIdle == 0 {
		p.MaxIdle = def.MaxIdle
	}
	if p.MaxOpen == 0 {
		p.MaxOpen = def.MaxOpen
	}
	if p.MaxLifetime == 0 {
		p.MaxLifetime = def.MaxLifetime
	}
	if p.MaxIdleTime == 0 {
		p.MaxIdleTime = def.MaxIdleTime
	}
	return p
}

// SQLite go-sqlite3 文件数据库
type SQLite struct {
	Path        string        `json:"path" mapstructure:"path" default:"./curvebox.db"`
	JournalMode string        `json:"journal_mode" mapstructure:"journal_mode" default:"WAL"`
	BusyTimeout time.Duration `json:"busy_timeout" mapstructure:"busy_timeout" default:"5s"`
}

// dsn 外键与 NORMAL 同步级别固定开启
func (s SQLite) dsn() string {
	q := url.Values{}
	q.Set("_journal_mode", s.JournalMode)
	q.Set("_busy_timeout", strconv.FormatInt(s.BusyTimeout.Milliseconds(), 10))
	q.Set("_synchronous", "NORMAL")
	q.Set("_foreign_keys", "true")
	return "file:" + s.Path + "?" + q.Encode()
}

// Postgres pgx 连接参数
type Postgres struct {
	Host     string `json:"host" mapstructure:"host" default:"localhost"`
	Port     int    `json:"port" mapstructure:"port" default:"5432"`
	User     string `json:"user" mapstructure:"user" default:"postgres"`
	Password string `json:"password" mapstructure:"password"`
	Database string `json:"database" mapstructure:"database" default:"curvebox"`
	SSLMode  string `json:"sslmode" mapstructure:"sslmode" default:"disable"`
	TimeZone string `json:"timezone" mapstructure:"timezone" default:"UTC"`
}

// dsn 生成 URL 形式，用户名和密码中的特殊字符由 net/url 转义
func (p Postgres) dsn(timeout time.Duration) string {
	q := url.Values{}
	q.Set("sslmode", p.SSLMode)
	if p.TimeZone != "" {
		q.Set("timezone", p.TimeZone)
	}
	q.Set("connect_timeout", strconv.Itoa(max(1, int(timeout.Seconds()))))

	user := url.User(p.User)
	if p.Password != "" {
		user = url.UserPassword(p.User, p.Password)
	}
	u := url.URL{
		Scheme:   "postgres",
		User:     user,
		Host:     net.JoinHostPort(p.Host, strconv.Itoa(p.Port)),
		Path:     "/" + p.Database,
		RawQuery: q.Encode(),
	}
	return u.String()
}

// MySQL go-sql-driver 连接参数
type MySQL struct {
	Host      string `json:"host" mapstructure:"host" default:"localhost"`
	Port      int    `json:"port" mapstructure:"port" default:"3306"`
	User      string `json:"user" mapstructure:"user" default:"root"`
	Password  string `json:"password" mapstructure:"password"`
	Database  string `json:"database" mapstructure:"database" default:"curvebox"`
	Charset   string `json:"charset" mapstructure:"charset" default:"utf8mb4"`
	Collation string `json:"collation" mapstructure:"collation" default:"utf8mb4_unicode_ci"`
	// Loc 解析 DATETIME 用的时区，"Local" 为本机时区
	Loc string `json:"loc" mapstructure:"loc" default:"UTC"`
}

func (m MySQL) dsn(timeout time.Duration) (string, error) {
	loc, err := time.LoadLocation(m.Loc)
	if err != nil {
		return "", errors.BadRequest("unknown mysql loc %q", m.Loc).WithCause(err)
	}

	c := gomysql.NewConfig()
	c.User = m.User
	c.Passwd = m.Password
	c.Net = "tcp"
	c.Addr = net.JoinHostPort(m.Host, strconv.Itoa(m.Port))
	c.DBName = m.Database
	c.Collation = m.Collation
	c.ParseTime = true
	c.Loc = loc
	c.Timeout = timeout
	c.Params = map[string]string{"charset": m.Charset}
	return c.FormatDSN(), nil
}
