// Package login toggles launching the app when the user logs in.
package login

import (
	"errors"
	"fmt"
	"html"
	"strings"
)

var ErrUnsupported = errors.New("launch at login is not supported on this platform")

const label = "com.voicemode.app"

// envKeys are copied into the agent so a login launch sees the same
// credentials and config as a shell launch.
var envKeys = []string{"GROQ_API_KEY", "OPENAI_API_KEY", "VOICEMODE_CONFIG", "VOICEMODE_LOG_PATH"}

func renderPlist(exe string, args []string, getenv func(string) string) string {
	var argv strings.Builder
	for _, a := range append([]string{exe}, args...) {
		fmt.Fprintf(&argv, "\t\t<string>%s</string>\n", html.EscapeString(a))
	}

	var env strings.Builder
	for _, key := range envKeys {
		if v := getenv(key); v != "" {
			fmt.Fprintf(&env, "\t\t<key>%s</key>\n\t\t<string>%s</string>\n", key, html.EscapeString(v))
		}
	}

	return fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<!DOCTYPE plist PUBLIC "-//Apple//DTD PLIST 1.0//EN" "http://www.apple.com/DTDs/PropertyList-1.0.dtd">
<plist version="1.0">
<dict>
	<key>Label</key>
	<string>%s</string>
	<key>ProgramArguments</key>
	<array>
%s	</array>
	<key>RunAtLoad</key>
	<true/>
	<key>LimitLoadToSessionType</key>
	<string>Aqua</string>
	<key>EnvironmentVariables</key>
	<dict>
%s	</dict>
</dict>
</plist>
`, label, argv.String(), env.String())
}
