/*
Copyright 2019 Google LLC.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package main

import (
	"flag"
	"os"

	"github.com/nats-io/nats.go"
	corev1 "k8s.io/api/core/v1"
	"k8s.io/apimachinery/pkg/runtime"
	"k8s.io/apimachinery/pkg/util/clock"
	_ "k8s.io/client-go/plugin/pkg/client/auth/gcp"
	"k8s.io/klog/v2"
	ctrl "sigs.k8s.io/controller-runtime"
	"sigs.k8s.io/controller-runtime/pkg/event"
	"sigs.k8s.io/controller-runtime/pkg/log/zap"
	"sigs.k8s.io/controller-runtime/pkg/manager"
	ctrlmetrics "sigs.k8s.io/controller-runtime/pkg/metrics"

	"github.com/googlecloudplatform/streams-operator/api/v1beta1"
	"github.com/googlecloudplatform/streams-operator/controllers"
	"github.com/googlecloudplatform/streams-operator/controllers/bundle"
	"github.com/googlecloudplatform/streams-operator/controllers/consistent"
	"github.com/googlecloudplatform/streams-operator/controllers/coordinator"
	"github.com/googlecloudplatform/streams-operator/controllers/metrics"
	"github.com/googlecloudplatform/streams-operator/controllers/notification"
	"github.com/googlecloudplatform/streams-operator/controllers/processingelement"
	"github.com/googlecloudplatform/streams-operator/controllers/restapi"
	"github.com/googlecloudplatform/streams-operator/controllers/subscription"
	"github.com/googlecloudplatform/streams-operator/controllers/timer"
	"github.com/googlecloudplatform/streams-operator/options"
	// +kubebuilder:scaffold:imports
)

var (
	scheme   = runtime.NewScheme()
	setupLog = ctrl.Log.WithName("setup")
)

func init() {
	corev1.AddToScheme(scheme)
	v1beta1.AddToScheme(scheme)
	// +kubebuilder:scaffold:scheme
}

func main() {
	var metricsAddr string
	var enableLeaderElection bool
	var watchNamespace string
	var configFile string
	flag.StringVar(&metricsAddr, "metrics-addr", ":8080", "The address the metric endpoint binds to.")
	flag.BoolVar(&enableLeaderElection, "enable-leader-election", false,
		"Enable leader election for controller manager. Enabling this will ensure there is only one active controller manager.")
	flag.StringVar(
		&watchNamespace,
		"watch-namespace",
		"",
		"Watch custom resources in the namespace, ignore other namespaces. If empty, all namespaces will be watched.")
	flag.StringVar(&configFile, "config", "", "Path of the YAML configuration file of the operator.")
	var zapOptions = zap.Options{}
	zapOptions.BindFlags(flag.CommandLine)
	flag.Parse()

	config, err := options.Load(configFile)
	if err != nil {
		// The logger is not set up yet.
		ctrl.SetLogger(zap.New(zap.UseFlagOptions(&zapOptions)))
		setupLog.Error(err, "Invalid configuration", "config", configFile)
		os.Exit(1)
	}
	if zapOptions.Level == nil {
		level, _ := config.Level()
		zapOptions.Level = level
	}
	var logger = zap.New(zap.UseFlagOptions(&zapOptions))
	ctrl.SetLogger(logger)
	klog.SetLogger(logger.WithName("klog"))

	mgr, err := ctrl.NewManager(ctrl.GetConfigOrDie(), ctrl.Options{
		Scheme:             scheme,
		MetricsBindAddress: metricsAddr,
		LeaderElection:     enableLeaderElection,
		LeaderElectionID:   "streams-operator-lock",
		Namespace:          watchNamespace,
	})
	if err != nil {
		setupLog.Error(err, "Unable to start manager")
		os.Exit(1)
	}

	var clk = clock.RealClock{}
	var coordinatorLog = ctrl.Log.WithName("coordinator")
	var peCoordinator = coordinator.New(
		coordinatorLog.WithName("ProcessingElement"), clk, config.CommandTimeout)
	var exportCoordinator = coordinator.New(
		coordinatorLog.WithName("Export"), clk, config.CommandTimeout)
	var regionCoordinator = coordinator.New(
		coordinatorLog.WithName("ConsistentRegion"), clk, config.CommandTimeout)

	// Notifications are only recorded on the boards without NATS.
	var conn notification.Conn
	var nc *nats.Conn
	if config.Nats.Enabled {
		nc, err = notification.Connect(config.Nats.URL, ctrl.Log.WithName("nats"))
		if err != nil {
			setupLog.Error(err, "Unable to connect to NATS", "url", config.Nats.URL)
			os.Exit(1)
		}
		defer nc.Close()
		conn = nc
	}
	var notifications = notification.NewBoard()
	var publisher = notification.NewPublisher(
		conn, config.Nats.SubjectPrefix, notifications, ctrl.Log.WithName("notification"))

	sink, err := metrics.NewPrometheusSink(ctrlmetrics.Registry)
	if err != nil {
		setupLog.Error(err, "Unable to register metrics")
		os.Exit(1)
	}

	var events = make(chan event.GenericEvent, 1024)
	var regionReconciler = &controllers.ConsistentRegionReconciler{
		Client:           mgr.GetClient(),
		Log:              ctrl.Log.WithName("controllers").WithName("ConsistentRegion"),
		Recorder:         mgr.GetEventRecorderFor("streams-operator"),
		Machine:          &consistent.Machine{Log: ctrl.Log.WithName("consistent")},
		Inbox:            consistent.NewInbox(),
		Coordinator:      regionCoordinator,
		Publisher:        publisher,
		Metrics:          sink,
		Clock:            clk,
		Events:           events,
		MaxEventsPerPass: config.MaxEventsPerReconcile,
	}
	regionReconciler.Timers = timer.NewScheduler(clk, regionReconciler.OnTimer)
	defer regionReconciler.Timers.Stop()
	if err = regionReconciler.SetupWithManager(mgr); err != nil {
		setupLog.Error(err, "Unable to create controller", "controller", "ConsistentRegion")
		os.Exit(1)
	}

	var pes = processingelement.NewCoordinator(mgr.GetClient(), peCoordinator)
	err = (&controllers.ProcessingElementReconciler{
		Client:      mgr.GetClient(),
		Log:         ctrl.Log.WithName("controllers").WithName("ProcessingElement"),
		Coordinator: peCoordinator,
		Pes:         pes,
	}).SetupWithManager(mgr)
	if err != nil {
		setupLog.Error(err, "Unable to create controller", "controller", "ProcessingElement")
		os.Exit(1)
	}

	var loader = bundle.NewLoader(bundle.Options{
		Attempts: config.Bundles.Attempts,
		Interval: config.Bundles.Interval,
		CacheTTL: config.Bundles.CacheTTL,
	}, ctrl.Log.WithName("bundle"))
	err = (&controllers.JobReconciler{
		Client:           mgr.GetClient(),
		Log:              ctrl.Log.WithName("controllers").WithName("Job"),
		Loader:           loader,
		Pes:              pes,
		Clock:            clk,
		RetryIntervalSec: config.JobRetryIntervalSec,
	}).SetupWithManager(mgr)
	if err != nil {
		setupLog.Error(err, "Unable to create controller", "controller", "Job")
		os.Exit(1)
	}

	var broker = subscription.NewBroker(mgr.GetClient(), subscription.NewBoard(), publisher,
		ctrl.Log.WithName("broker"))
	err = (&controllers.ExportReconciler{
		Client:      mgr.GetClient(),
		Log:         ctrl.Log.WithName("controllers").WithName("Export"),
		Broker:      broker,
		Coordinator: exportCoordinator,
	}).SetupWithManager(mgr)
	if err != nil {
		setupLog.Error(err, "Unable to create controller", "controller", "Export")
		os.Exit(1)
	}
	err = (&controllers.ImportReconciler{
		Client: mgr.GetClient(),
		Log:    ctrl.Log.WithName("controllers").WithName("Import"),
		Broker: broker,
	}).SetupWithManager(mgr)
	if err != nil {
		setupLog.Error(err, "Unable to create controller", "controller", "Import")
		os.Exit(1)
	}

	// Set up webhooks for the custom resources.
	// Disable it with `STREAMS_OPERATOR_ENABLE_WEBHOOKS=false` when we run locally.
	if os.Getenv("STREAMS_OPERATOR_ENABLE_WEBHOOKS") != "false" {
		if err = (&v1beta1.Job{}).SetupWebhookWithManager(mgr); err != nil {
			setupLog.Error(err, "Unable to setup webhooks", "webhook", "Job")
			os.Exit(1)
		}
		if err = (&v1beta1.ConsistentRegion{}).SetupWebhookWithManager(mgr); err != nil {
			setupLog.Error(err, "Unable to setup webhooks", "webhook", "ConsistentRegion")
			os.Exit(1)
		}
	}

	type namedRunnable struct {
		name     string
		runnable manager.Runnable
	}
	var runnables = []namedRunnable{
		{"bundle loader", loader},
		{"region resync", &controllers.RegionResync{
			Reader:    mgr.GetClient(),
			Log:       ctrl.Log.WithName("resync"),
			Events:    events,
			Schedule:  config.ResyncSchedule,
			Namespace: watchNamespace,
		}},
		{"rest server", restapi.NewServer(restapi.Options{
			Addr:           config.Rest.Addr,
			MaxConnections: config.Rest.MaxConnections,
			Namespace:      watchNamespace,
		}, broker.Board(), notifications, mgr.GetClient(),
			subscription.NewExportCoordinator(mgr.GetClient(), exportCoordinator),
			ctrl.Log.WithName("rest"))},
	}
	if nc != nil {
		runnables = append(runnables, namedRunnable{"progress listener",
			notification.NewProgressListener(nc, config.Nats.SubjectPrefix,
				regionReconciler.OnProgress, ctrl.Log.WithName("progress"))})
	}
	for _, r := range runnables {
		if err = mgr.Add(r.runnable); err != nil {
			setupLog.Error(err, "Unable to add runnable", "runnable", r.name)
			os.Exit(1)
		}
	}

	// +kubebuilder:scaffold:builder

	setupLog.Info("Starting manager")
	if err := mgr.Start(ctrl.SetupSignalHandler()); err != nil {
		setupLog.Error(err, "Problem running manager")
		os.Exit(1)
	}
	peCoordinator.Close()
	exportCoordinator.Close()
	regionCoordinator.Close()
}
