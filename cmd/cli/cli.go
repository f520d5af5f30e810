// PROPRIETARY AND CONFIDENTIAL
//
// Unauthorized copying of this file via any medium is strictly prohibited.
//
// Copyright (c) 2020-2022 Snowplow Analytics Ltd. All rights reserved.

package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"
	json "github.com/goccy/go-json"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/twinj/uuid"
	"github.com/urfave/cli"

	"net/http"
	// pprof imported for the side effect of registering its HTTP handlers
	_ "net/http/pprof"

	"github.com/snowplow-devops/aws-blocks/cmd"
	"github.com/snowplow-devops/aws-blocks/config"
	"github.com/snowplow-devops/aws-blocks/pkg/block"
	"github.com/snowplow-devops/aws-blocks/pkg/health"
	"github.com/snowplow-devops/aws-blocks/pkg/models"
	"github.com/snowplow-devops/aws-blocks/pkg/schema"
	"github.com/snowplow-devops/aws-blocks/pkg/source/sourceconfig"
	"github.com/snowplow-devops/aws-blocks/pkg/source/sourceiface"
)

const (
	appVersion   = cmd.AppVersion
	appName      = cmd.AppName
	appUsage     = "Invokes AWS operations described by trigger events and publishes their results"
	appCopyright = "(c) 2020-2022 Snowplow Analytics Ltd. All rights reserved."
)

var services = []string{"sqs", "cloudfront", "rds"}

// RunCli allows running application from cli
func RunCli(supportedSources []sourceconfig.ConfigPair) {
	cfg, sentryEnabled, err := cmd.Init()
	if err != nil {
		exitWithError(err, sentryEnabled)
	}

	app := cli.NewApp()
	app.Name = appName
	app.Usage = appUsage
	app.Version = appVersion
	app.Copyright = appCopyright
	app.Compiled = time.Now().UTC()
	app.Authors = []cli.Author{
		{
			Name:  "Snowplow Analytics Ltd",
			Email: "support@snowplowanalytics.com",
		},
	}

	app.Flags = []cli.Flag{
		cli.BoolFlag{
			Name:  "profile, p",
			Usage: "Enable application profiling endpoint on port 8080",
		},
		cli.StringFlag{
			Name:  "health-address",
			Usage: "Serve the /health endpoint on this address, e.g. :8081",
		},
	}

	app.Action = func(c *cli.Context) error {
		if c.Bool("profile") {
			go func() {
				if err := http.ListenAndServe("localhost:8080", nil); err != nil {
					log.WithError(err).Fatal("failed to start up the server")
				}
			}()
		}
		if addr := c.String("health-address"); addr != "" {
			mux := http.NewServeMux()
			mux.HandleFunc("/health", health.Handler)
			go func() {
				if err := http.ListenAndServe(addr, mux); err != nil {
					log.WithError(err).Fatal("failed to start up the health server")
				}
			}()
		}
		return RunApp(cfg, supportedSources)
	}

	app.Commands = []cli.Command{
		{
			Name:  "list",
			Usage: "List the enabled blocks",
			Flags: []cli.Flag{
				cli.GenericFlag{
					Name:  "service, s",
					Usage: "Only list the blocks of one service (sqs, cloudfront, rds)",
					Value: &EnumValue{Enum: services},
				},
			},
			Action: func(c *cli.Context) error {
				registry, err := cfg.GetRegistry()
				if err != nil {
					return err
				}
				return listBlocks(os.Stdout, registry, c.Generic("service").(*EnumValue).String())
			},
		},
		{
			Name:      "describe",
			Usage:     "Print the input and output shapes of a block as JSON",
			ArgsUsage: "BLOCK",
			Action: func(c *cli.Context) error {
				if c.NArg() != 1 {
					return errors.New("describe expects exactly one block id, e.g. sqs.SendMessage")
				}
				registry, err := cfg.GetRegistry()
				if err != nil {
					return err
				}
				return describeBlock(os.Stdout, registry, c.Args().First())
			},
		},
		{
			Name:  "invoke",
			Usage: "Invoke a single block and print the output event",
			Flags: []cli.Flag{
				cli.StringFlag{
					Name:  "block, b",
					Usage: "Id of the block to invoke, e.g. rds.DescribeDBInstances",
				},
				cli.StringFlag{
					Name:  "input, i",
					Usage: "JSON input of the operation",
					Value: "{}",
				},
				cli.StringFlag{
					Name:  "region",
					Usage: "AWS region, overriding the configured one",
				},
				cli.StringFlag{
					Name:  "endpoint",
					Usage: "Custom AWS endpoint URL",
				},
				cli.StringFlag{
					Name:  "role-arn",
					Usage: "IAM role to assume for the invocation",
				},
			},
			Action: func(c *cli.Context) error {
				if c.String("block") == "" {
					return errors.New("invoke requires --block")
				}
				if !json.Valid([]byte(c.String("input"))) {
					return errors.New("--input must be a JSON document")
				}
				d, err := cfg.GetDispatcher()
				if err != nil {
					return err
				}

				eventContext := map[string]interface{}{}
				for flag, key := range map[string]string{"region": "region", "endpoint": "endpoint", "role-arn": "role_arn"} {
					if v := c.String(flag); v != "" {
						eventContext[key] = v
					}
				}

				event := &models.Event{
					ID:      uuid.NewV4().String(),
					Block:   c.String("block"),
					Context: eventContext,
					Input:   json.RawMessage(c.String("input")),
				}
				return invokeBlock(context.Background(), os.Stdout, d, event)
			},
		},
	}

	app.ExitErrHandler = func(context *cli.Context, err error) {
		if err != nil {
			exitWithError(err, sentryEnabled)
		}
	}

	if err := app.Run(os.Args); err != nil {
		log.WithError(err).Error("failed to run cli")
	}
}

// RunApp reads trigger events from the configured source until it is
// exhausted or stopped
func RunApp(cfg *config.Config, supportedSources []sourceconfig.ConfigPair) error {
	tags, err := cfg.GetTags()
	if err != nil {
		return err
	}

	// Spin up the webhook monitoring first, so alerting starts as soon as possible
	webhookMonitoring, alertChan, err := cfg.GetWebhookMonitoring(cmd.AppName, cmd.AppVersion, tags)
	if err != nil {
		return err
	}
	if webhookMonitoring != nil {
		webhookMonitoring.Start()
		defer webhookMonitoring.Stop()
	}

	source, err := sourceconfig.GetSource(cfg, supportedSources)
	if err != nil {
		return err
	}

	d, err := cfg.GetDispatcher()
	if err != nil {
		return err
	}

	t, err := cfg.GetTarget()
	if err != nil {
		return err
	}
	t.Open()

	ft, err := cfg.GetFailureTarget()
	if err != nil {
		return err
	}
	ft.Open()

	o, err := cfg.GetObserver(tags)
	if err != nil {
		return err
	}
	o.Start()
	health.SetHealthy()

	// Handle SIGTERM
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sig
		log.Warn("SIGTERM called, cleaning up and closing application ...")

		stop := make(chan struct{}, 1)
		go func() {
			source.Stop()
			stop <- struct{}{}
		}()

		select {
		case <-stop:
			log.Debug("source.Stop() finished successfully!")
		case <-time.After(5 * time.Second):
			log.Error("source.Stop() took more than 5 seconds, forcing shutdown ...")

			t.Close()
			ft.Close()
			o.Stop()

			os.Exit(1)
		}
	}()

	// Callback functions for the source to leverage when writing data
	sf := sourceiface.SourceFunctions{
		WriteToTarget: cmd.SourceWriteFunc(context.Background(), d, t, ft, o, cfg.Data.Retry, alertChan),
	}

	// Read is a long running process and will only return when the source
	// is exhausted or if an error occurs
	err = source.Read(&sf)
	if err != nil {
		return err
	}

	t.Close()
	ft.Close()
	o.Stop()
	return nil
}

type blockSummary struct {
	ID        string `json:"id"`
	Service   string `json:"service"`
	Operation string `json:"operation"`
}

type blockDescription struct {
	blockSummary
	Input  *schema.Shape `json:"input"`
	Output *schema.Shape `json:"output"`
}

// listBlocks writes one line per enabled block
func listBlocks(w io.Writer, registry *block.Registry, service string) error {
	for _, b := range registry.List(service) {
		if _, err := fmt.Fprintln(w, b.GetID()); err != nil {
			return err
		}
	}
	return nil
}

func describeBlock(w io.Writer, registry *block.Registry, id string) error {
	b, err := registry.Get(id)
	if err != nil {
		return err
	}

	data, err := json.MarshalIndent(&blockDescription{
		blockSummary: blockSummary{
			ID:        b.GetID(),
			Service:   b.Service(),
			Operation: b.Operation(),
		},
		Input:  b.InputSchema(),
		Output: b.OutputSchema(),
	}, "", "  ")
	if err != nil {
		return errors.Wrap(err, "Failed to encode block description")
	}

	_, err = fmt.Fprintln(w, string(data))
	return err
}

type eventInvoker interface {
	InvokeEvent(ctx context.Context, event *models.Event) (*models.OutputEvent, error)
}

// invokeBlock writes the output event, or the failure event along with the
// error when the invocation fails
func invokeBlock(ctx context.Context, w io.Writer, d eventInvoker, event *models.Event) error {
	res, invokeErr := d.InvokeEvent(ctx, event)

	var out interface{} = res
	if invokeErr != nil {
		trigger, err := json.Marshal(event)
		if err != nil {
			return errors.Wrap(err, "Failed to encode trigger event")
		}
		msg := &models.Message{PartitionKey: event.ID, Data: trigger}
		msg.SetError(invokeErr)
		out = models.NewFailureEvent(msg, time.Now().UTC())
	}

	data, err := json.Marshal(out)
	if err != nil {
		return errors.Wrap(err, "Failed to encode invocation result")
	}
	if _, err := fmt.Fprintln(w, string(data)); err != nil {
		return err
	}

	return invokeErr
}

// exitWithError will ensure we log the error and leave time for Sentry to flush
func exitWithError(err error, flushSentry bool) {
	log.WithFields(log.Fields{"error": err}).Error(err)
	if flushSentry {
		sentry.Flush(2 * time.Second)
	}
	os.Exit(1)
}
