// Copyright 2020 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"crypto/tls"
	"log"
	"os"
	"strconv"
	"strings"

	mail "gopkg.in/gomail.v2"
)

var (
	alertMailUsr  = os.Getenv("HIL_MAIL_USERNAME")
	alertMailPwd  = os.Getenv("HIL_MAIL_PASSWORD")
	alertMailSrv  = os.Getenv("HIL_MAIL_SERVER")
	alertMailPort = atoi(os.Getenv("HIL_MAIL_PORT"))
	alertMailTgts = splitNonEmpty(os.Getenv("HIL_MAIL_TGTS"))
)

// alertMail sends an operator e-mail alert the same way eda-ctl alerts on
// a stalled output file: a discovery failure or a shutdown-HiZ error
// swallowed at Close time are both "something went wrong, and nobody but
// the log is watching" events.
func alertMail(subject, body string) {
	if alertMailUsr == "" || alertMailPwd == "" || alertMailSrv == "" || alertMailPort == 0 || len(alertMailTgts) == 0 {
		log.Printf("could not send mail alert (missing credentials): %s", subject)
		return
	}

	msg := mail.NewMessage()
	msg.SetHeader("From", alertMailUsr)
	msg.SetHeader("Bcc", alertMailTgts...)
	msg.SetHeader("Subject", "[hil-srv] "+subject)
	msg.SetBody("text/plain", body)

	dial := mail.NewDialer(alertMailSrv, alertMailPort, alertMailUsr, alertMailPwd)
	dial.TLSConfig = &tls.Config{InsecureSkipVerify: true}
	if err := dial.DialAndSend(msg); err != nil {
		log.Printf("could not send mail alert: %+v", err)
	}
}

func atoi(s string) int {
	v, err := strconv.Atoi(s)
	if err != nil {
		return 0
	}
	return v
}

func splitNonEmpty(s string) []string {
	if s == "" {
		return nil
	}
	var out []string
	for _, tok := range strings.Split(s, ",") {
		if tok != "" {
			out = append(out, tok)
		}
	}
	return out
}
