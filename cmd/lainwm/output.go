package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"golang.org/x/term"

	"github.com/lainwm/lainwm/internal/ipc"
)

func stdoutIsTerminal() bool {
	return term.IsTerminal(int(os.Stdout.Fd()))
}

func writeJSON(w io.Writer, v any) int {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	return 0
}

func printStatus(w io.Writer, status *ipc.StatusData) {
	fmt.Fprintf(w, "daemon_running:    %v\n", status.DaemonRunning)
	fmt.Fprintf(w, "monitors:          %d\n", status.MonitorCount)
	fmt.Fprintf(w, "clients:           %d\n", status.ClientCount)
	fmt.Fprintf(w, "current_monitor:   %d\n", status.CurrentMonitor)
	fmt.Fprintf(w, "focused_window:    %s\n", windowHex(status.FocusedWindow))
	if status.InteractionWin != 0 {
		fmt.Fprintf(w, "interaction:       %s %s\n", status.InteractionPhase, windowHex(status.InteractionWin))
	} else {
		fmt.Fprintf(w, "interaction:       %s\n", status.InteractionPhase)
	}
	fmt.Fprintf(w, "uptime_seconds:    %d\n", status.UptimeSeconds)
}

func printMonitors(w io.Writer, data *ipc.MonitorsData) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tGEOMETRY\tCURRENT")
	for _, m := range data.Monitors {
		current := ""
		if m.Current {
			current = "*"
		}
		fmt.Fprintf(tw, "%d\t%s\t%dx%d+%d+%d\t%s\n", m.ID, m.Name, m.Width, m.Height, m.X, m.Y, current)
	}
	tw.Flush()
}

func printClients(w io.Writer, data *ipc.ClientsData) {
	if len(data.Clients) == 0 {
		fmt.Fprintln(w, "no managed windows")
		return
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "WINDOW\tMONITOR\tGEOMETRY\tFLAGS\tNAME")
	for _, c := range data.Clients {
		id := windowHex(c.ID)
		if c.Focused {
			id += "*"
		}
		fmt.Fprintf(tw, "%s\t%d\t%dx%d+%d+%d\t%s\t%s\n", id, c.Monitor, c.Width, c.Height, c.X, c.Y, c.Flags, c.Name)
	}
	tw.Flush()
}

func windowHex(id uint32) string {
	if id == 0 {
		return "none"
	}
	return fmt.Sprintf("0x%x", id)
}
