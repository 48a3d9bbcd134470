package playlist

import "github.com/llehouerou/singalong/internal/library"

// QueueTitle is the title of the play queue.
const QueueTitle = "Queue"

// Queue is the session play queue. Its head is the track being played;
// the queue sequencer removes tracks once they have been played.
type Queue struct {
	*Collection
}

// NewQueue creates an empty queue.
func NewQueue() *Queue {
	return &Queue{Collection: newCollection(QueueTitle)}
}

// Head returns the first track, or nil if the queue is empty.
func (q *Queue) Head() *library.Track {
	return q.Track(0)
}
