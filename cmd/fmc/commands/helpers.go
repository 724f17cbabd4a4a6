package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/fivetwenty-io/fmc-client/internal/constants"
	"github.com/fivetwenty-io/fmc-client/pkg/fmc"
	"github.com/fivetwenty-io/fmc-client/pkg/fmcclient"
	"github.com/olekukonko/tablewriter"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/term"
	"gopkg.in/yaml.v3"
)

// Viper keys shared by the commands.
const (
	keyURL      = "url"
	keyUsername = "username"
	keyPassword = "password"
	keyDomain   = "domain"
	keyInsecure = "insecure"
	keyOutput   = "output"
	keyVerbose  = "verbose"
)

// ServerSettings describes one FMC server login.
type ServerSettings struct {
	URL      string
	Username string
	Password string
	Domain   string
	Insecure bool
}

// configuredServer reads the server settings from flags, environment and the
// config file.
func configuredServer() ServerSettings {
	return ServerSettings{
		URL:      viper.GetString(keyURL),
		Username: viper.GetString(keyUsername),
		Password: viper.GetString(keyPassword),
		Domain:   viper.GetString(keyDomain),
		Insecure: viper.GetBool(keyInsecure),
	}
}

// LogrusLogger adapts a logrus logger to fmc.Logger.
type LogrusLogger struct {
	logger *logrus.Logger
}

// NewLogrusLogger creates a logger writing to w. Verbose enables debug output.
func NewLogrusLogger(w io.Writer, verbose bool) *LogrusLogger {
	l := logrus.New()
	l.SetOutput(w)
	l.SetFormatter(&logrus.TextFormatter{DisableTimestamp: true})

	l.SetLevel(logrus.WarnLevel)
	if verbose {
		l.SetLevel(logrus.DebugLevel)
	}

	return &LogrusLogger{logger: l}
}

func (l *LogrusLogger) Debug(msg string, fields map[string]interface{}) {
	l.logger.WithFields(fields).Debug(msg)
}

func (l *LogrusLogger) Info(msg string, fields map[string]interface{}) {
	l.logger.WithFields(fields).Info(msg)
}

func (l *LogrusLogger) Warn(msg string, fields map[string]interface{}) {
	l.logger.WithFields(fields).Warn(msg)
}

func (l *LogrusLogger) Error(msg string, fields map[string]interface{}) {
	l.logger.WithFields(fields).Error(msg)
}

// promptPassword reads a password from the terminal without echo.
func promptPassword(w io.Writer, label string) (string, error) {
	fd := int(os.Stdin.Fd())

	if !term.IsTerminal(fd) {
		return "", constants.ErrNoPasswordInput
	}

	_, _ = fmt.Fprintf(w, "%s: ", label)

	bytePassword, err := term.ReadPassword(fd)
	if err != nil {
		return "", fmt.Errorf("failed to read password: %w", err)
	}

	_, _ = fmt.Fprintln(w)

	return string(bytePassword), nil
}

// connect logs in to the server described by settings.
func connect(ctx context.Context, cmd *cobra.Command, settings ServerSettings) (fmc.Client, error) {
	if settings.URL == "" {
		return nil, constants.ErrNoServerConfigured
	}

	if settings.Username == "" {
		return nil, constants.ErrNoUsername
	}

	if settings.Password == "" {
		password, err := promptPassword(cmd.ErrOrStderr(), settings.Username+"@"+settings.URL+" password")
		if err != nil {
			return nil, err
		}

		settings.Password = password
	}

	verbose := viper.GetBool(keyVerbose)

	client, err := fmcclient.New(ctx, &fmc.Config{
		URL:                settings.URL,
		Username:           settings.Username,
		Password:           settings.Password,
		Domain:             settings.Domain,
		InsecureSkipVerify: settings.Insecure,
		Debug:              verbose,
		Logger:             NewLogrusLogger(cmd.ErrOrStderr(), verbose),
	})
	if err != nil {
		return nil, err
	}

	return client, nil
}

// withClient logs in to the configured server, runs fn and logs out.
func withClient(cmd *cobra.Command, fn func(ctx context.Context, client fmc.Client) error) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	client, err := connect(ctx, cmd, configuredServer())
	if err != nil {
		return err
	}

	defer func() {
		_ = client.Logout(ctx)
	}()

	return fn(ctx, client)
}

// parseObjectType validates a policy object type argument.
func parseObjectType(arg string) (fmc.ObjectType, error) {
	objType := fmc.ObjectType(strings.ToLower(arg))
	if !fmc.IsObjectType(objType) {
		return "", fmt.Errorf("%w: %s", constants.ErrUnknownObjectType, arg)
	}

	return objType, nil
}

func parseObjectTypes(args []string) ([]fmc.ObjectType, error) {
	types := make([]fmc.ObjectType, 0, len(args))

	for _, arg := range args {
		objType, err := parseObjectType(arg)
		if err != nil {
			return nil, err
		}

		types = append(types, objType)
	}

	return types, nil
}

// render writes data as JSON or YAML, or calls table for the table format.
func render(w io.Writer, data interface{}, table func(t *tablewriter.Table)) error {
	switch viper.GetString(keyOutput) {
	case constants.FormatJSON:
		encoder := json.NewEncoder(w)
		encoder.SetIndent("", strings.Repeat(" ", constants.JSONIndentSize))

		return encoder.Encode(data)
	case constants.FormatYAML:
		encoder := yaml.NewEncoder(w)
		defer func() { _ = encoder.Close() }()

		return encoder.Encode(data)
	case constants.FormatTable, "":
		t := tablewriter.NewWriter(w)
		table(t)

		err := t.Render()
		if err != nil {
			return fmt.Errorf("failed to render table: %w", err)
		}

		return nil
	default:
		return fmt.Errorf("%w: %s", constants.ErrInvalidOutput, viper.GetString(keyOutput))
	}
}

// renderRecords prints records as a name/id/type/value table.
func renderRecords(w io.Writer, records []*fmc.Record) error {
	return render(w, records, func(t *tablewriter.Table) {
		t.Header("Name", "ID", "Type", "Value", "Description")

		for _, rec := range records {
			_ = t.Append(rec.Name, rec.ID, rec.Type, orNotAvailable(rec.Value), truncate(rec.Description))
		}
	})
}

// renderRecord prints one record as a property table.
func renderRecord(w io.Writer, rec *fmc.Record) error {
	return render(w, rec, func(t *tablewriter.Table) {
		t.Header("Property", "Value")
		_ = t.Append("Name", rec.Name)
		_ = t.Append("ID", rec.ID)
		_ = t.Append("Type", rec.Type)

		if rec.Value != "" {
			_ = t.Append("Value", rec.Value)
		}

		if rec.Description != "" {
			_ = t.Append("Description", rec.Description)
		}

		if len(rec.Objects) > 0 {
			members := make([]string, 0, len(rec.Objects))
			for _, child := range rec.Objects {
				members = append(members, fmt.Sprintf("%s (%s)", child.Name, child.Type))
			}

			_ = t.Append("Members", strings.Join(members, "\n"))
		}

		if self := rec.SelfURL(); self != "" {
			_ = t.Append("URL", self)
		}
	})
}

func orNotAvailable(s string) string {
	if s == "" {
		return constants.NotAvailable
	}

	return s
}

func truncate(s string) string {
	if len(s) <= constants.DescriptionDisplayLength {
		return s
	}

	return s[:constants.DescriptionDisplayLength-3] + "..."
}

// validateFilePath checks that a payload path is safe to read.
func validateFilePath(filePath string) (string, error) {
	cleanPath := filepath.Clean(filePath)

	if filepath.IsAbs(filePath) {
		if cleanPath != filePath {
			return "", constants.ErrDirectoryTraversalDetected
		}
	} else if cleanPath == ".." || strings.HasPrefix(cleanPath, ".."+string(filepath.Separator)) {
		return "", constants.ErrDirectoryTraversalDetected
	}

	info, err := os.Stat(cleanPath)
	if err != nil {
		return "", fmt.Errorf("file not accessible: %w", err)
	}

	if !info.Mode().IsRegular() {
		return "", fmt.Errorf("%w: %s", constants.ErrNotRegularFile, filePath)
	}

	return cleanPath, nil
}

// readPayload reads a JSON or YAML object definition. Unknown keys are kept.
func readPayload(filePath string) (*fmc.Record, error) {
	cleanPath, err := validateFilePath(filePath)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", filePath, err)
	}

	return parsePayload(data)
}

// parsePayload decodes YAML (and therefore JSON) into a record.
func parsePayload(data []byte) (*fmc.Record, error) {
	var raw map[string]interface{}

	err := yaml.Unmarshal(data, &raw)
	if err != nil {
		return nil, fmt.Errorf("failed to parse payload: %w", err)
	}

	encoded, err := json.Marshal(raw)
	if err != nil {
		return nil, fmt.Errorf("failed to encode payload: %w", err)
	}

	var rec fmc.Record

	err = json.Unmarshal(encoded, &rec)
	if err != nil {
		return nil, fmt.Errorf("failed to decode payload: %w", err)
	}

	if rec.Name == "" {
		return nil, constants.ErrPayloadNameEmpty
	}

	return &rec, nil
}
