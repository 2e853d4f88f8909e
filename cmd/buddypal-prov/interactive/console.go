// Package interactive provides the operator console of a simulated
// buddypal-prov. The console plays the phone app: it attaches to the
// simulated radio, writes characteristics and submits the hotspot form.
package interactive

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/chzyer/readline"

	"github.com/buddypal/wifiprov/pkg/apportal"
	"github.com/buddypal/wifiprov/pkg/bleprov"
	"github.com/buddypal/wifiprov/pkg/provisioning"
	"github.com/buddypal/wifiprov/pkg/settings"
	"github.com/buddypal/wifiprov/pkg/station"
	"github.com/buddypal/wifiprov/pkg/status"
	"github.com/buddypal/wifiprov/pkg/wifi"
)

// Target is the console's view of the simulated device. Nil fields disable
// the commands that need them.
type Target struct {
	Platform     *bleprov.SimPlatform
	Service      *bleprov.Service
	AccessPoint  *apportal.LoopbackAP
	Portal       *apportal.Strategy
	Station      *station.Simulated
	Store        settings.Store
	Display      *status.RecordingDisplay
	Orchestrator func() *provisioning.Orchestrator
	Reset        func()
}

// Console handles interactive mode for buddypal-prov.
type Console struct {
	rl     *readline.Instance
	target Target
}

// New creates a console. Attach must be called before Run.
func New() (*Console, error) {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "phone> ",
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create readline: %w", err)
	}
	return &Console{rl: rl}, nil
}

// Attach sets the device the console drives.
func (c *Console) Attach(t Target) {
	c.target = t
}

// Stdout returns a writer that doesn't corrupt the prompt.
func (c *Console) Stdout() io.Writer {
	return c.rl.Stdout()
}

// Stderr returns a writer for log output that doesn't corrupt the prompt.
func (c *Console) Stderr() io.Writer {
	return c.rl.Stderr()
}

// Run reads commands until quit, EOF or ctx ends.
func (c *Console) Run(ctx context.Context, cancel context.CancelFunc) {
	defer c.rl.Close()

	c.printHelp()

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		line, err := c.rl.Readline()
		if err != nil {
			if err == readline.ErrInterrupt {
				continue
			}
			fmt.Fprintln(c.rl.Stdout(), "Exiting...")
			cancel()
			return
		}

		input := strings.TrimSpace(line)
		if input == "" {
			continue
		}
		if c.Execute(input) {
			fmt.Fprintln(c.rl.Stdout(), "Exiting...")
			cancel()
			return
		}
	}
}

// Execute runs one command line and reports whether it asked to quit.
func (c *Console) Execute(input string) (quit bool) {
	parts := strings.Fields(input)
	cmd := strings.ToLower(parts[0])
	args := parts[1:]

	switch cmd {
	case "help", "?":
		c.printHelp()
	case "connect", "c":
		c.cmdConnect()
	case "disconnect", "dc":
		c.cmdDisconnect()
	case "ssid", "s":
		c.cmdWriteRole(bleprov.SSIDCharUUID, restOf(input, 1))
	case "password", "pw":
		c.cmdWriteRole(bleprov.PasswordCharUUID, restOf(input, 1))
	case "write", "w":
		c.cmdWriteHandle(args, restOf(input, 2))
	case "notifications", "n":
		c.cmdNotifications()
	case "ap":
		c.cmdAP(args)
	case "network", "net":
		c.cmdNetwork(args)
	case "state", "st":
		c.cmdState()
	case "profiles", "p":
		c.cmdProfiles()
	case "display", "d":
		c.cmdDisplay()
	case "reset":
		c.cmdReset()
	case "quit", "exit", "q":
		return true
	default:
		fmt.Fprintf(c.rl.Stdout(), "Unknown command: %s (type 'help' for commands)\n", cmd)
	}
	return false
}

func (c *Console) printHelp() {
	fmt.Fprintln(c.rl.Stdout(), `
BuddyPal Provisioning Console:
  Bluetooth:
    connect              - Attach to the device
    disconnect           - Detach from the device
    ssid <name>          - Write the network name
    password [secret]    - Write the password (empty for open networks)
    write <handle> <val> - Write a raw characteristic handle
    notifications        - Show status notifications received

  Hotspot:
    ap                   - Show hotspot status
    ap submit <ssid> [password] - Submit the hotspot form

  Device:
    network add <ssid> <password> [rssi] - Add a reachable network
    network list         - List reachable networks
    state                - Show provisioning state
    profiles             - Show stored networks
    display              - Show the screen history
    reset                - Reset into configuration mode

  General:
    help                 - Show this help
    quit                 - Exit`)
}

// restOf returns input after its first n words, keeping inner spaces.
func restOf(input string, n int) string {
	s := strings.TrimSpace(input)
	for i := 0; i < n; i++ {
		idx := strings.IndexAny(s, " \t")
		if idx < 0 {
			return ""
		}
		s = strings.TrimLeft(s[idx:], " \t")
	}
	return s
}

func (c *Console) requireBLE() bool {
	if c.target.Platform == nil {
		fmt.Fprintln(c.rl.Stdout(), "Bluetooth is disabled")
		return false
	}
	return true
}

func (c *Console) cmdConnect() {
	if !c.requireBLE() {
		return
	}
	connID, err := c.target.Platform.Connect()
	if err != nil {
		fmt.Fprintf(c.rl.Stdout(), "Connect failed: %v\n", err)
		return
	}
	fmt.Fprintf(c.rl.Stdout(), "Connected to %s (conn %d)\n", c.target.Platform.Name(), connID)
}

func (c *Console) cmdDisconnect() {
	if !c.requireBLE() {
		return
	}
	if err := c.target.Platform.Disconnect(); err != nil {
		fmt.Fprintf(c.rl.Stdout(), "Disconnect failed: %v\n", err)
		return
	}
	fmt.Fprintln(c.rl.Stdout(), "Disconnected")
}

func (c *Console) cmdWriteRole(uuid bleprov.UUID16, value string) {
	if !c.requireBLE() {
		return
	}
	if _, err := c.target.Platform.Write(uuid, []byte(value), true); err != nil {
		fmt.Fprintf(c.rl.Stdout(), "Write failed: %v\n", err)
		return
	}
	fmt.Fprintf(c.rl.Stdout(), "Wrote %d bytes to %s\n", len(value), uuid)
}

func (c *Console) cmdWriteHandle(args []string, value string) {
	if !c.requireBLE() {
		return
	}
	if len(args) < 1 {
		fmt.Fprintln(c.rl.Stdout(), "Usage: write <handle> <value>")
		return
	}
	handle, err := strconv.ParseUint(args[0], 0, 16)
	if err != nil {
		fmt.Fprintf(c.rl.Stdout(), "Invalid handle: %s\n", args[0])
		return
	}
	if _, err := c.target.Platform.WriteHandle(uint16(handle), []byte(value), true); err != nil {
		fmt.Fprintf(c.rl.Stdout(), "Write failed: %v\n", err)
		return
	}
	fmt.Fprintf(c.rl.Stdout(), "Wrote %d bytes to handle 0x%04X\n", len(value), handle)
}

func (c *Console) cmdNotifications() {
	if !c.requireBLE() {
		return
	}
	notes := c.target.Platform.Notifications()
	if len(notes) == 0 {
		fmt.Fprintln(c.rl.Stdout(), "No notifications")
		return
	}
	for i, n := range notes {
		fmt.Fprintf(c.rl.Stdout(), "  %3d  conn %d  handle 0x%04X  %q\n", i+1, n.ConnID, n.Handle, n.Value)
	}
}

func (c *Console) cmdAP(args []string) {
	ap := c.target.AccessPoint
	if ap == nil {
		fmt.Fprintln(c.rl.Stdout(), "Hotspot unavailable")
		return
	}
	if len(args) == 0 {
		fmt.Fprintf(c.rl.Stdout(), "Hotspot %s  running=%v  form=%s\n", ap.SSID(), ap.Running(), ap.WebServerURL())
		if c.target.Portal != nil {
			word, debug := c.target.Portal.LastStatus()
			if word != "" || debug != "" {
				fmt.Fprintf(c.rl.Stdout(), "Form status: %s  %s\n", word, debug)
			}
		}
		return
	}
	if strings.ToLower(args[0]) != "submit" || len(args) < 2 {
		fmt.Fprintln(c.rl.Stdout(), "Usage: ap submit <ssid> [password]")
		return
	}
	creds := wifi.Credentials{SSID: args[1]}
	if len(args) > 2 {
		creds.Password = strings.Join(args[2:], " ")
	}
	if err := ap.Submit(creds); err != nil {
		fmt.Fprintf(c.rl.Stdout(), "Submit failed: %v\n", err)
		return
	}
	fmt.Fprintf(c.rl.Stdout(), "Submitted %s\n", creds.SSID)
}

func (c *Console) cmdNetwork(args []string) {
	st := c.target.Station
	if st == nil {
		fmt.Fprintln(c.rl.Stdout(), "No simulated station")
		return
	}
	if len(args) == 0 || strings.ToLower(args[0]) == "list" {
		networks := st.Networks()
		if len(networks) == 0 {
			fmt.Fprintln(c.rl.Stdout(), "No reachable networks")
			return
		}
		for _, n := range networks {
			fmt.Fprintf(c.rl.Stdout(), "  %-24s rssi %d\n", n.SSID, n.RSSI)
		}
		return
	}
	if strings.ToLower(args[0]) != "add" || len(args) < 3 {
		fmt.Fprintln(c.rl.Stdout(), "Usage: network add <ssid> <password> [rssi]")
		return
	}
	n := station.Network{SSID: args[1], Password: args[2], RSSI: -55}
	if len(args) > 3 {
		rssi, err := strconv.Atoi(args[3])
		if err != nil {
			fmt.Fprintf(c.rl.Stdout(), "Invalid rssi: %s\n", args[3])
			return
		}
		n.RSSI = rssi
	}
	st.AddNetwork(n)
	fmt.Fprintf(c.rl.Stdout(), "Network %s added\n", n.SSID)
}

func (c *Console) orchestrator() *provisioning.Orchestrator {
	if c.target.Orchestrator == nil {
		return nil
	}
	return c.target.Orchestrator()
}

func (c *Console) cmdState() {
	w := c.rl.Stdout()
	if o := c.orchestrator(); o != nil {
		fmt.Fprintf(w, "Provisioning:  %s (config mode: %v)\n", o.State(), o.InConfigMode())
		fmt.Fprintf(w, "Indicator:     %s\n", o.NetworkIndicator())
	}
	if svc := c.target.Service; svc != nil {
		sess := svc.Session()
		fmt.Fprintf(w, "Bluetooth:     %s, peer %s\n", svc.State(), sess.Conn)
		if sess.ID != "" {
			fmt.Fprintf(w, "  Session:     %s\n", sess.ID)
			fmt.Fprintf(w, "  Service:     0x%04X\n", sess.ServiceHandle)
			for _, r := range []bleprov.Role{bleprov.RoleSSID, bleprov.RolePassword, bleprov.RoleStatus} {
				fmt.Fprintf(w, "  %-12s 0x%04X (%s)\n", r.String()+":", sess.Handle(r), r.UUID())
			}
		}
	}
	if st := c.target.Station; st != nil {
		fmt.Fprint(w, stationStatus(st))
	}
}

// stationStatus describes the simulated station, including the device
// status document once connected.
func stationStatus(st *station.Simulated) string {
	if !st.IsConnected() {
		return "Station:       disconnected\n"
	}
	out := fmt.Sprintf("Station:       connected to %s (rssi %d)\n", st.SSID(), st.RSSI())
	doc, err := status.DeviceStatusJSON(st.SSID(), st.RSSI())
	if err != nil {
		return out + fmt.Sprintf("  Status:      error: %v\n", err)
	}
	return out + fmt.Sprintf("  Status:      %s\n", doc)
}

func (c *Console) cmdProfiles() {
	if c.target.Store == nil {
		return
	}
	profiles, err := c.target.Store.Profiles()
	if err != nil {
		fmt.Fprintf(c.rl.Stdout(), "Read failed: %v\n", err)
		return
	}
	if len(profiles) == 0 {
		fmt.Fprintln(c.rl.Stdout(), "No stored networks")
		return
	}
	for i, p := range profiles {
		fmt.Fprintf(c.rl.Stdout(), "  %d  %-24s %s  updated %s\n",
			i+1, p.SSID, maskPassword(p.Password), p.UpdatedAt.Format("2006-01-02 15:04:05"))
	}
}

func maskPassword(pw string) string {
	if pw == "" {
		return "(open)"
	}
	return strings.Repeat("*", len(pw))
}

func (c *Console) cmdDisplay() {
	if c.target.Display == nil {
		return
	}
	notices := c.target.Display.Notices()
	if len(notices) == 0 {
		fmt.Fprintln(c.rl.Stdout(), "Screen is blank")
		return
	}
	for _, n := range notices {
		fmt.Fprintf(c.rl.Stdout(), "  [%s] %s\n", n.Duration, strings.ReplaceAll(n.Text, "\n", " / "))
	}
}

func (c *Console) cmdReset() {
	if o := c.orchestrator(); o != nil && o.InConfigMode() {
		fmt.Fprintln(c.rl.Stdout(), "Already in configuration mode")
		return
	}
	if c.target.Reset == nil {
		return
	}
	c.target.Reset()
	fmt.Fprintln(c.rl.Stdout(), "Reset requested")
}
