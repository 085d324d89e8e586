package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/sbag9697/wealth-face-ai/internal/application"
	"github.com/sbag9697/wealth-face-ai/internal/client"
	"github.com/sbag9697/wealth-face-ai/internal/client/store"
	"github.com/sbag9697/wealth-face-ai/internal/domain/analysis"
	"github.com/sbag9697/wealth-face-ai/internal/domain/payment"
	"github.com/sbag9697/wealth-face-ai/internal/flow"
	"github.com/sbag9697/wealth-face-ai/internal/logger"
	"github.com/sbag9697/wealth-face-ai/internal/result"
)

type options struct {
	server    string
	statePath string
	timeout   time.Duration
	logLevel  string
	adminKey  string
}

func (o *options) client() *client.Client {
	return client.NewClient(o.server, o.timeout).WithAdminKey(o.adminKey)
}

func (o *options) store() store.Store {
	return store.NewFile(o.statePath)
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func newRootCmd() *cobra.Command {
	o := &options{}
	root := &cobra.Command{
		Use:           "wealthface",
		Short:         "AI 관상 분석: upload a face photo, pay, read the full report",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return logger.Init(o.logLevel, "text", "")
		},
	}
	root.PersistentFlags().StringVar(&o.server, "server", envOr("WEALTHFACE_SERVER", "http://localhost:8080"), "server base URL")
	root.PersistentFlags().StringVar(&o.statePath, "state", store.DefaultPath(), "where the latest analysis is kept between commands")
	root.PersistentFlags().DurationVar(&o.timeout, "timeout", 2*time.Minute, "HTTP timeout")
	root.PersistentFlags().StringVar(&o.logLevel, "log-level", "warn", "log level")

	root.AddCommand(newScanCmd(o), newPayCmd(o), newResultCmd(o), newModelsCmd(o), newResetCmd(o))
	return root
}

func newController(o *options, out io.Writer) *flow.Controller {
	return &flow.Controller{
		API:    o.client(),
		Store:  o.store(),
		Widget: &consoleWidget{out: out, server: o.server, store: o.store()},
		Clock:  application.SystemClock{},
	}
}

func newScanCmd(o *options) *cobra.Command {
	var (
		pay    bool
		reveal time.Duration
	)
	cmd := &cobra.Command{
		Use:   "scan <photo>",
		Short: "Analyse a face photo and show the teaser",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()

			out := cmd.OutOrStdout()
			ctl := newController(o, out)
			ctl.RevealDelay = reveal

			fmt.Fprintln(out, "관상을 분석하는 중입니다...")
			res, err := ctl.Select(cmd.Context(), f)
			if err != nil {
				return err
			}
			printTeaser(out, res)
			if !pay {
				fmt.Fprintln(out, "\n전체 결과를 보려면: wealthface pay")
				return nil
			}
			_, err = ctl.Pay(cmd.Context())
			return err
		},
	}
	cmd.Flags().BoolVar(&pay, "pay", false, "go straight to checkout after the teaser")
	cmd.Flags().DurationVar(&reveal, "reveal-delay", flow.DefaultRevealDelay, "pause before the teaser is shown")
	return cmd
}

func newPayCmd(o *options) *cobra.Command {
	return &cobra.Command{
		Use:   "pay",
		Short: "Start checkout for the latest analysis",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctl := newController(o, cmd.OutOrStdout())
			if err := ctl.Resume(cmd.Context()); err != nil {
				if errors.Is(err, store.ErrEmpty) {
					return errors.New("no analysis yet, run: wealthface scan <photo>")
				}
				return err
			}
			_, err := ctl.Pay(cmd.Context())
			return err
		},
	}
}

func newResultCmd(o *options) *cobra.Command {
	var (
		redirect string
		p        result.Params
	)
	cmd := &cobra.Command{
		Use:   "result",
		Short: "Resume after the payment redirect",
		Long: "Pass the URL the payment page redirected to with --url, or the individual\n" +
			"parameters. The payment is verified on the server before anything is shown.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if redirect != "" {
				u, err := url.Parse(redirect)
				if err != nil {
					return fmt.Errorf("parse --url: %w", err)
				}
				p = result.ParseQuery(u.Query())
			}
			r := &result.Renderer{API: o.client(), Store: o.store(), Clock: application.SystemClock{}}
			v, err := r.Render(cmd.Context(), p)
			if err != nil {
				return err
			}
			printReport(cmd.OutOrStdout(), v.Report)
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVar(&redirect, "url", "", "full redirect URL")
	f.StringVar(&p.PaymentKey, "paymentKey", "", "payment key from the redirect")
	f.StringVar(&p.OrderID, "orderId", "", "order id from the redirect")
	f.StringVar(&p.Amount, "amount", "", "amount from the redirect")
	f.BoolVar(&p.Success, "success", false, "reopen an already verified report")
	f.BoolVar(&p.Fail, "fail", false, "the payment page reported a failure")
	f.StringVar(&p.Code, "code", "", "failure code")
	f.StringVar(&p.Message, "message", "", "failure message")
	return cmd
}

func newResetCmd(o *options) *cobra.Command {
	return &cobra.Command{
		Use:   "reset",
		Short: "Forget the stored analysis and report",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := o.store().Clear(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "저장된 분석 결과를 삭제했습니다.")
			return nil
		},
	}
}

func newModelsCmd(o *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "models",
		Short: "List the AI models the server can reach",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			models, err := o.client().Models(cmd.Context())
			if err != nil {
				return err
			}
			for _, m := range models {
				fmt.Fprintln(cmd.OutOrStdout(), m.ID)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&o.adminKey, "admin-key", os.Getenv("WEALTHFACE_ADMIN_KEY"), "operator key")
	return cmd
}

// consoleWidget prints where to finish payment; the hosted widget needs a
// browser.
type consoleWidget struct {
	out    io.Writer
	server string
	store  store.Store
}

func (w *consoleWidget) Open(ctx context.Context, order payment.Order) error {
	st, err := w.store.Load(ctx)
	if err != nil {
		return err
	}
	page := strings.TrimSuffix(w.server, "/") + "/checkout?" + url.Values{"sessionToken": {st.SessionToken}}.Encode()
	fmt.Fprintf(w.out, "\n%s - %d원\n", order.OrderName, order.Amount)
	fmt.Fprintf(w.out, "브라우저에서 결제를 진행하세요:\n  %s\n", page)
	fmt.Fprintln(w.out, "결제 후 이동한 주소로: wealthface result --url '<redirect url>'")
	return nil
}

func printTeaser(out io.Writer, r *client.AnalyzeResponse) {
	fmt.Fprintf(out, "\n닮은 부자: %s (일치율 %d%%)\n", r.RichLookalike, r.MatchRate)
	fmt.Fprintf(out, "동물상: %s\n", r.AnimalType)
	fmt.Fprintf(out, "예상 재산: %s\n", r.PotentialWealth)
}

func printReport(out io.Writer, r *analysis.Result) {
	fmt.Fprintln(out, "당신의 재물운 분석")
	fmt.Fprintf(out, "닮은 부자: %s (일치율 %d%%)\n", r.RichLookalike, r.MatchRate)
	fmt.Fprintf(out, "물형 관상: %s상\n", r.AnimalType)
	fmt.Fprintf(out, "잠재 추정 자산: %s\n", r.PotentialWealth)
	fmt.Fprintf(out, "\"%s\"\n\n", r.Summary)
	fmt.Fprintln(out, r.DetailedAnalysis)
}
