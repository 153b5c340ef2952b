package config

import (
	"errors"
	"flag"
	"net"
	"regexp"
	"strconv"
)

type Config struct {
	Addr      string
	DBUrl     string
	AdminKey  string
	SiteName  string
	UploadDir string
	MaxEmails int
	Debug     bool

	SMTPHost string
	SMTPPort int
	SMTPUser string
	SMTPPass string
}

func ParseFlags() (cfg Config, err error) {
	var host string
	flag.StringVar(&host, "host", "0.0.0.0", "listen host name (default 0.0.0.0)")
	var port uint
	flag.UintVar(&port, "port", 80, "listen port number (default 80)")
	flag.StringVar(&cfg.DBUrl, "db-url", "confirmemail.sqlite", "path to SQLite3 DB file (default confirmemail.sqlite)")
	flag.StringVar(&cfg.AdminKey, "admin-key", "", "bearer key protecting the admin settings endpoints")
	flag.StringVar(&cfg.SiteName, "site-name", "Survey", "site name used as email sender display name")
	flag.StringVar(&cfg.UploadDir, "upload-dir", "upload", "root directory of survey file uploads")
	var maxEmails uint
	flag.UintVar(&maxEmails, "max-emails", 5, "maximum number of emails configurable per survey (default 5)")
	flag.StringVar(&cfg.SMTPHost, "smtp-host", "localhost", "SMTP server host")
	var smtpPort uint
	flag.UintVar(&smtpPort, "smtp-port", 25, "SMTP server port")
	flag.StringVar(&cfg.SMTPUser, "smtp-user", "", "SMTP user name (empty disables authentication)")
	flag.StringVar(&cfg.SMTPPass, "smtp-pass", "", "SMTP password")
	flag.BoolVar(&cfg.Debug, "debug", false, "log at DEBUG level")
	flag.Parse()

	cfg.Addr = net.JoinHostPort(host, strconv.Itoa(int(port)))
	cfg.MaxEmails = int(maxEmails)
	cfg.SMTPPort = int(smtpPort)

	if cfg.AdminKey == "" {
		err = errors.New("missing parameter -admin-key")
	}

	return
}

func (cfg Config) Url() (url string) {
	url = cfg.Addr
	url = regexp.MustCompile(`^0.0.0.0`).ReplaceAllString(url, "localhost")
	url = "http://" + url
	return
}
