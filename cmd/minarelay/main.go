// minarelay — bridges a XiaoAi speaker to a chat bot on Slack.
//
// The relay polls the Mina cloud for the newest spoken query, forwards it
// to the bot, and speaks the streamed answer back on the speaker.
// Behavior is driven by environment configuration; run it and leave it
// running.
//
// Usage:
//
//	minarelay [--verbose] [--quiet] [--use-command] [--dry-run]
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	stdlog "log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	cli "github.com/spf13/pflag"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/hammamikhairi/minarelay/internal/bridge"
	"github.com/hammamikhairi/minarelay/internal/chat"
	"github.com/hammamikhairi/minarelay/internal/conversation"
	"github.com/hammamikhairi/minarelay/internal/domain"
	"github.com/hammamikhairi/minarelay/internal/logger"
	"github.com/hammamikhairi/minarelay/internal/miauth"
	"github.com/hammamikhairi/minarelay/internal/mina"
	"github.com/hammamikhairi/minarelay/internal/reply"
	"github.com/hammamikhairi/minarelay/internal/speech"
)

// defaultPrompt is the instruction suffix appended to every dispatched
// query, tuned for answers short enough to speak.
const defaultPrompt = "请用100字以内回答，并且请快速生成前2句话。" +
	"请只回答文字不要带链接。请只说明事实。请简要扼要回答问题。" +
	"请只包含必要信息，删除次要内容。"

// Environment variables read at startup.
const (
	envUser       = "MI_USER"
	envPass       = "MI_PASS"
	envHardware   = "SOUND_TYPE"
	envSlackToken = "SLACK_CLAUDE_USER_TOKEN"
	envSlackBot   = "SLACK_CLAUDE_BOT_ID"
	envPrompt     = "RELAY_PROMPT"
)

func main() {
	os.Exit(run())
}

func run() int {
	envFile := cli.StringP("env", "e", ".env", "env file path")
	verbose := cli.Bool("verbose", false, "enable verbose/debug logging")
	quiet := cli.Bool("quiet", false, "disable all logging")
	logFile := cli.String("log-file", "minarelay.log", "file to write logs to (use \"stderr\" to log to console)")
	useCommand := cli.Bool("use-command", false, "speak via the local micli command instead of cloud TTS")
	dryRun := cli.Bool("dry-run", false, "print replies without speaking them")
	ttsBin := cli.String("tts-bin", speech.DefaultTTSBinary, "external TTS binary used with --use-command")
	pollInterval := cli.Duration("poll-interval", time.Second, "pause between query polls")
	turnTimeout := cli.Duration("turn-timeout", 5*time.Minute, "upper bound on one chat turn")
	cli.Parse()

	_ = godotenv.Load(*envFile)

	logLevel := logger.LevelNormal
	if *verbose {
		logLevel = logger.LevelVerbose
	}
	if *quiet {
		logLevel = logger.LevelOff
	}

	// Keep the console clean for conversation output; logs go to a
	// rotated file by default.
	var logOut io.Writer = os.Stderr
	if *logFile != "" && *logFile != "stderr" {
		logOut = &lumberjack.Logger{
			Filename:   *logFile,
			MaxSize:    10, // MB
			MaxBackups: 3,
			MaxAge:     28, // days
		}
	}
	stdlog.SetOutput(logOut)
	log := logger.New(logLevel, logOut)

	user := os.Getenv(envUser)
	pass := os.Getenv(envPass)
	hardware := os.Getenv(envHardware)
	slackToken := os.Getenv(envSlackToken)
	slackBot := os.Getenv(envSlackBot)
	prompt := os.Getenv(envPrompt)
	if prompt == "" {
		prompt = defaultPrompt
	}

	for _, required := range []struct{ name, value string }{
		{envUser, user},
		{envPass, pass},
		{envHardware, hardware},
		{envSlackToken, slackToken},
		{envSlackBot, slackBot},
	} {
		if required.value == "" {
			fmt.Fprintf(os.Stderr, "minarelay: %s is not set\n", required.name)
			return 1
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Wire dependencies.
	account := miauth.NewAccount(user, pass, log)
	svc := mina.NewService(hardware, account, log)

	if err := svc.RenewSession(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "minarelay: login: %v\n", err)
		return 1
	}
	if err := svc.ResolveDevice(ctx); err != nil {
		// Configuration error, not retryable.
		fmt.Fprintf(os.Stderr, "minarelay: %v\n", err)
		return 1
	}

	var voice domain.Voice
	if *dryRun {
		voice = speech.NewNoOp(log)
	} else if *useCommand {
		voice = speech.NewCommandVoice(*ttsBin, hardware, log)
		log.Info("TTS via external command %s (%s)", *ttsBin, speech.TTSCommandFor(hardware))
	} else {
		voice = speech.NewCloudVoice(svc, log)
	}

	backend := chat.NewSlack(slackToken, slackBot, log)
	parser := conversation.NewCommandParser(log)
	notifier := conversation.NewConsoleNotifier(log)
	driver := reply.NewDriver(log, reply.WithTurnTimeout(*turnTimeout))

	relay := bridge.New(svc, svc, backend, svc, voice, parser, notifier, driver, log,
		bridge.WithCycleDelay(*pollInterval),
		bridge.WithPrompt(prompt),
	)

	if err := relay.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		log.Error("minarelay: %v", err)
		fmt.Fprintf(os.Stderr, "minarelay: %v\n", err)
		return 1
	}
	return 0
}
