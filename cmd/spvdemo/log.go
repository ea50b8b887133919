package main

import (
	"github.com/ltcsuite/ltcspv/chaincfg"
	"github.com/ltcsuite/ltcspv/chainengine"
	"github.com/ltcsuite/ltcspv/checkpoints"
	"github.com/ltcsuite/ltcspv/connmgr"
	"github.com/ltcsuite/ltcspv/headerfs"
	"github.com/ltcsuite/ltcspv/internal/plog"
	"github.com/ltcsuite/ltcspv/peer"
	"github.com/ltcsuite/ltcspv/peergroup"
)

// useLogging creates and wires one tagged logger per library package at
// the configured level, mirroring pktwallet's log.go.
func useLogging(levelName string) {
	level := plog.LevelFromString(levelName)

	chaincfgLog := plog.NewLogger("CCFG")
	chaincfgLog.SetLevel(level)
	chaincfg.UseLogger(chaincfgLog)

	headerfsLog := plog.NewLogger("HFDB")
	headerfsLog.SetLevel(level)
	headerfs.UseLogger(headerfsLog)

	checkpointsLog := plog.NewLogger("CKPT")
	checkpointsLog.SetLevel(level)
	checkpoints.UseLogger(checkpointsLog)

	chainengineLog := plog.NewLogger("CENG")
	chainengineLog.SetLevel(level)
	chainengine.UseLogger(chainengineLog)

	peerLog := plog.NewLogger("PEER")
	peerLog.SetLevel(level)
	peer.UseLogger(peerLog)

	peergroupLog := plog.NewLogger("PGRP")
	peergroupLog.SetLevel(level)
	peergroup.UseLogger(peergroupLog)

	connmgrLog := plog.NewLogger("CONN")
	connmgrLog.SetLevel(level)
	connmgr.UseLogger(connmgrLog)
}
