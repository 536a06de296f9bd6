package game

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/tak-uukti/orion-quiz-app/domain"
)

// --- WebsocketConnection ---

type MockWebsocketConnection struct {
	mock.Mock
}

func (m *MockWebsocketConnection) Close() {
	m.Called()
}

func (m *MockWebsocketConnection) Write(data []byte) error {
	args := m.Called(data)
	return args.Error(0)
}

func (m *MockWebsocketConnection) Read() ([]byte, error) {
	args := m.Called()
	return args.Get(0).([]byte), args.Error(1)
}

func (m *MockWebsocketConnection) Ping() error {
	args := m.Called()
	return args.Error(0)
}

// --- CodeGenerator ---

type MockCodeGenerator struct {
	mock.Mock
}

func (m *MockCodeGenerator) Generate() string {
	args := m.Called()
	return args.String(0)
}

// --- PeriodicTickerChannelCreator ---

type MockPeriodicTickerChannelCreator struct {
	mock.Mock
}

func (m *MockPeriodicTickerChannelCreator) Create(duration time.Duration) <-chan time.Time {
	args := m.Called(duration)
	return args.Get(0).(chan time.Time)
}

// --- TimerCreator ---

type MockTimerCreator struct {
	mock.Mock
}

func (m *MockTimerCreator) After(duration time.Duration) <-chan time.Time {
	args := m.Called(duration)
	return args.Get(0).(chan time.Time)
}

// --- QuizGetter ---

type MockQuizGetter struct {
	mock.Mock
}

func (m *MockQuizGetter) GetQuizById(ctx context.Context, id string) (domain.Quiz, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(domain.Quiz), args.Error(1)
}

// --- SessionRecorder ---

type MockSessionRecorder struct {
	mock.Mock
}

func (m *MockSessionRecorder) RecordSessionCreated(ctx context.Context, roomCode string, quiz domain.Quiz) error {
	args := m.Called(ctx, roomCode, quiz)
	return args.Error(0)
}

func (m *MockSessionRecorder) RecordPlayerJoined(ctx context.Context, roomCode, playerID, name string) error {
	args := m.Called(ctx, roomCode, playerID, name)
	return args.Error(0)
}

func (m *MockSessionRecorder) RecordAnswer(ctx context.Context, roomCode string, response domain.Response) error {
	args := m.Called(ctx, roomCode, response)
	return args.Error(0)
}

func (m *MockSessionRecorder) RecordQuestionStartedAt(ctx context.Context, roomCode string, questionIndex int, startedAt time.Time) error {
	args := m.Called(ctx, roomCode, questionIndex, startedAt)
	return args.Error(0)
}

func (m *MockSessionRecorder) RecordStatus(ctx context.Context, roomCode string, status string) error {
	args := m.Called(ctx, roomCode, status)
	return args.Error(0)
}

// --- MessageHandler ---

type MockMessageHandler struct {
	mock.Mock
}

func (m *MockMessageHandler) HandleMessage(ctx context.Context, participantID string, msg ClientMessage) {
	m.Called(ctx, participantID, msg)
}

func (m *MockMessageHandler) Disconnect(ctx context.Context, participantID string) {
	m.Called(ctx, participantID)
}

// --- Peer ---

type MockPeer struct {
	mock.Mock
}

func (m *MockPeer) ID() string {
	args := m.Called()
	return args.String(0)
}

func (m *MockPeer) Send(data []byte) error {
	args := m.Called(data)
	return args.Error(0)
}

func (m *MockPeer) Ping() {
	m.Called()
}

// --- recordingPeer ---

// recordingPeer keeps every frame it is sent, decoded back into events.
type recordingPeer struct {
	id     string
	locker sync.Mutex
	frames []recordedMessage
}

type recordedMessage struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

func newRecordingPeer(id string) *recordingPeer {
	return &recordingPeer{id: id}
}

func (p *recordingPeer) ID() string {
	return p.id
}

func (p *recordingPeer) Send(data []byte) error {
	var msg recordedMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return err
	}
	p.locker.Lock()
	defer p.locker.Unlock()
	p.frames = append(p.frames, msg)
	return nil
}

func (p *recordingPeer) Ping() {}

func (p *recordingPeer) Events() []string {
	p.locker.Lock()
	defer p.locker.Unlock()
	events := make([]string, 0, len(p.frames))
	for _, f := range p.frames {
		events = append(events, f.Event)
	}
	return events
}

// Last returns the data of the most recent frame carrying event.
func (p *recordingPeer) Last(event string) (json.RawMessage, bool) {
	p.locker.Lock()
	defer p.locker.Unlock()
	for i := len(p.frames) - 1; i >= 0; i-- {
		if p.frames[i].Event == event {
			return p.frames[i].Data, true
		}
	}
	return nil, false
}

func (p *recordingPeer) Reset() {
	p.locker.Lock()
	defer p.locker.Unlock()
	p.frames = nil
}
