// resendctl exercises the resend endpoint the way a client application
// would: through the SDK client wrapped in the cooldown controller. Useful
// for poking at a running instance without a frontend.
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/campuswell/wellness-api/internal/sdk"
	"github.com/campuswell/wellness-api/internal/sdk/resend"
)

func main() {
	var (
		baseURL    = flag.String("base-url", "http://localhost:8080", "API base URL")
		email      = flag.String("email", "", "email address to resend the verification code to")
		cooldown   = flag.Int("cooldown", 60, "local cooldown between sends, in seconds")
		maxResends = flag.Int("max-resends", 5, "maximum number of sends per run")
		once       = flag.Bool("once", false, "send a single request and exit")
	)
	flag.Parse()

	if *email == "" {
		fmt.Fprintln(os.Stderr, "usage: resendctl -email <address> [-base-url URL] [-once]")
		os.Exit(2)
	}

	client := sdk.NewClient(*baseURL)
	controller := resend.NewController(client,
		resend.WithCooldown(*cooldown),
		resend.WithMaxResends(*maxResends),
	)
	defer controller.Close()

	ctx := context.Background()

	if *once {
		res := controller.Resend(ctx, *email)
		printResult(res)
		if !res.Success {
			os.Exit(1)
		}
		return
	}

	fmt.Printf("target: %s  email: %s\n", *baseURL, *email)
	fmt.Println("press enter to resend, q to quit")

	reader := bufio.NewReader(os.Stdin)
	for {
		fmt.Printf("[%s] > ", controller.ButtonText())
		line, err := reader.ReadString('\n')
		if err != nil {
			return
		}
		if strings.TrimSpace(line) == "q" {
			return
		}

		snap := controller.Snapshot()
		if !snap.CanResend {
			if snap.CooldownSeconds > 0 {
				fmt.Printf("cooldown active, %ds remaining\n", snap.CooldownSeconds)
			} else {
				fmt.Println("resend limit reached for this run")
			}
			continue
		}

		res := controller.Resend(ctx, *email)
		printResult(res)

		snap = controller.Snapshot()
		fmt.Printf("sends this run: %d/%d\n", snap.ResendCount, *maxResends)
		if snap.LastResendTime != nil {
			fmt.Printf("last send: %s\n", snap.LastResendTime.Format(time.RFC3339))
		}
	}
}

func printResult(res resend.Result) {
	if res.Success {
		fmt.Printf("ok: %s\n", res.Message)
		return
	}
	fmt.Printf("failed: %s\n", res.Error)
}
