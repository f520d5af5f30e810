// PROPRIETARY AND CONFIDENTIAL
//
// Unauthorized copying of this file via any medium is strictly prohibited.
//
// Copyright (c) 2020-2022 Snowplow Analytics Ltd. All rights reserved.

package common

import (
	"encoding/base64"
	"fmt"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"github.com/twinj/uuid"
)

// TemporaryDir is where credential and certificate files are materialised
const TemporaryDir = "tmp_aws_blocks"

// GetGCPServiceAccountFromBase64 will take a base64 encoded string
// and attempt to create a JSON file on disk within the TemporaryDir
// which can be used to authenticate the PubSub target.
func GetGCPServiceAccountFromBase64(serviceAccountB64 string) (string, error) {
	sDec, err := base64.StdEncoding.DecodeString(serviceAccountB64)
	if err != nil {
		return "", errors.Wrap(err, "Failed to Base64 decode service account")
	}

	targetFile := filepath.Join(TemporaryDir, fmt.Sprintf("aws-blocks-service-account-%s.json", uuid.NewV4().String()))
	if err := writeTemporaryFile(targetFile, sDec); err != nil {
		return "", err
	}
	return targetFile, nil
}

// DeleteTemporaryDir removes the temporary directory and everything written to it
func DeleteTemporaryDir() error {
	return os.RemoveAll(TemporaryDir)
}

func writeTemporaryFile(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return errors.Wrap(err, "Failed to create temporary directory")
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return errors.Wrapf(err, "Failed to write temporary file %s", path)
	}
	return nil
}
