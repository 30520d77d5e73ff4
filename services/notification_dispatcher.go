package services

import (
	"context"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"dungeonStreakAPI/internal/notification"
)

// NotificationDispatcher delivers events through a Notifier on a fixed worker pool.
type NotificationDispatcher struct {
	notifier notification.Notifier
	timeout  time.Duration
	workers  int
	jobQueue chan notification.Event
	stopChan chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

func NewNotificationDispatcher(notifier notification.Notifier, workers, queueSize int, timeout time.Duration) *NotificationDispatcher {
	d := &NotificationDispatcher{
		notifier: notifier,
		timeout:  timeout,
		workers:  workers,
		jobQueue: make(chan notification.Event, queueSize),
		stopChan: make(chan struct{}),
	}

	d.startWorkers()
	return d
}

func (d *NotificationDispatcher) startWorkers() {
	for i := 0; i < d.workers; i++ {
		d.wg.Add(1)
		go d.worker(i)
	}
}

func (d *NotificationDispatcher) worker(id int) {
	defer d.wg.Done()
	for {
		select {
		case e := <-d.jobQueue:
			d.process(id, e)
		case <-d.stopChan:
			d.drain(id)
			return
		}
	}
}

// drain delivers whatever is already queued so Stop does not lose accepted events.
func (d *NotificationDispatcher) drain(id int) {
	for {
		select {
		case e := <-d.jobQueue:
			d.process(id, e)
		default:
			return
		}
	}
}

func (d *NotificationDispatcher) process(worker int, e notification.Event) {
	ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
	defer cancel()

	if err := d.notifier.Notify(ctx, e); err != nil {
		notificationFailuresTotal.WithLabelValues("delivery").Inc()
		log.WithError(err).WithFields(log.Fields{
			"worker":   worker,
			"user_id":  e.UserID,
			"notifier": d.notifier.Name(),
		}).Warn("Notification delivery failed")
		return
	}
	log.WithFields(log.Fields{"user_id": e.UserID, "date": e.Date}).Debug("Notification delivered")
}

// Dispatch queues e without blocking; a full queue or a stopped dispatcher drops it.
func (d *NotificationDispatcher) Dispatch(e notification.Event) bool {
	select {
	case <-d.stopChan:
		notificationFailuresTotal.WithLabelValues("stopped").Inc()
		log.WithField("user_id", e.UserID).Warn("Notification dropped: dispatcher stopped")
		return false
	default:
	}

	select {
	case d.jobQueue <- e:
		return true
	default:
		notificationFailuresTotal.WithLabelValues("queue_full").Inc()
		log.WithField("user_id", e.UserID).Warn("Notification dropped: queue full")
		return false
	}
}

// Stop the dispatcher gracefully
func (d *NotificationDispatcher) Stop() {
	d.stopOnce.Do(func() {
		log.Info("Stopping notification dispatcher...")
		close(d.stopChan)
		d.wg.Wait()
		log.Info("Notification dispatcher stopped")
	})
}
