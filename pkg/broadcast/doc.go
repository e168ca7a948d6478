// Package broadcast fans typed values out to any number of in-process subscribers.
//
// Publishing never blocks: a subscriber whose buffer is full misses the value and
// the broadcaster counts the drop. Subscriptions end when their context is
// cancelled, when Close is called on them, or when the broadcaster is closed.
//
//	b := broadcast.New[queue.Event](64)
//	sub := b.Subscribe(ctx)
//	go func() {
//		for ev := range sub.C() {
//			log.Println(ev.Type)
//		}
//	}()
//	b.Publish(queue.Event{Type: queue.EventCompleted})
package broadcast
