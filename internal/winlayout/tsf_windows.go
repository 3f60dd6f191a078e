//go:build windows

package winlayout

import (
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"sync"
	"sync/atomic"
	"syscall"
	"time"
	"unsafe"

	ole "github.com/go-ole/go-ole"
	"golang.org/x/sys/windows"
)

var (
	procGetMessageW        = user32DLL.NewProc("GetMessageW")
	procPeekMessageW       = user32DLL.NewProc("PeekMessageW")
	procTranslateMessage   = user32DLL.NewProc("TranslateMessage")
	procDispatchMessageW   = user32DLL.NewProc("DispatchMessageW")
	procPostThreadMessageW = user32DLL.NewProc("PostThreadMessageW")
)

const (
	wmQuit     = 0x0012
	pmNoRemove = 0x0000

	sOK           = 0x00000000
	sFalse        = 0x00000001
	eNoInterface  = 0x80004002
	rpcEChangedMd = 0x80010106

	// tfIPSinkFlagActive is TF_IPSINK_FLAG_ACTIVE: the profile in the
	// OnActivated call is the one being switched to.
	tfIPSinkFlagActive = 0x0001

	stopTimeout = 2 * time.Second
)

// ITfThreadMgr and ITfSource vtable slots after the three IUnknown methods.
const (
	vtThreadMgrActivate   = 3
	vtThreadMgrDeactivate = 4
	vtSourceAdviseSink    = 3
	vtSourceUnadviseSink  = 4
)

var (
	clsidTFThreadMgr  = ole.NewGUID("{529A9E6B-6587-4F23-AB9E-9C7D683E3C50}")
	iidITfThreadMgr   = ole.NewGUID("{AA80E801-2021-11D2-93E0-0060B067B86E}")
	iidITfSource      = ole.NewGUID("{4EA48A35-60AE-446F-8FD6-E6A8D82459F7}")
	iidActivationSink = ole.NewGUID("{71C6E74E-0F28-11D8-A82A-00065B84435C}")
)

// point mirrors the Win32 POINT struct.
type point struct {
	x int32
	y int32
}

// winMsg mirrors the Win32 MSG struct. The layout must match winuser.h.
type winMsg struct {
	hWnd     uintptr
	message  uint32
	wParam   uintptr
	lParam   uintptr
	time     uint32
	pt       point
	lPrivate uint32
}

// activationSink is a Go-allocated COM object implementing
// ITfInputProcessorProfileActivationSink. The vtable pointer must be the
// first field.
type activationSink struct {
	vtbl   *activationSinkVtbl
	refs   int32
	notify func()
}

type activationSinkVtbl struct {
	queryInterface uintptr
	addRef         uintptr
	release        uintptr
	onActivated    uintptr
}

var (
	sinkVtblOnce sync.Once
	sinkVtbl     *activationSinkVtbl
)

// NewCallback slots are a finite process resource; the vtable is built once
// and shared by every sink.
func sharedSinkVtbl() *activationSinkVtbl {
	sinkVtblOnce.Do(func() {
		sinkVtbl = &activationSinkVtbl{
			queryInterface: syscall.NewCallback(sinkQueryInterface),
			addRef:         syscall.NewCallback(sinkAddRef),
			release:        syscall.NewCallback(sinkRelease),
			onActivated:    syscall.NewCallback(sinkOnActivated),
		}
	})
	return sinkVtbl
}

func sinkQueryInterface(this *activationSink, riid *ole.GUID, ppv *uintptr) uintptr {
	if ppv == nil {
		return eNoInterface
	}
	if ole.IsEqualGUID(riid, ole.IID_IUnknown) || ole.IsEqualGUID(riid, iidActivationSink) {
		*ppv = uintptr(unsafe.Pointer(this))
		atomic.AddInt32(&this.refs, 1)
		return sOK
	}
	*ppv = 0
	return eNoInterface
}

func sinkAddRef(this *activationSink) uintptr {
	return uintptr(atomic.AddInt32(&this.refs, 1))
}

func sinkRelease(this *activationSink) uintptr {
	n := atomic.AddInt32(&this.refs, -1)
	if n < 0 {
		n = 0
	}
	return uintptr(n)
}

// sinkOnActivated receives (profileType, langid, clsid, catid, guidProfile,
// hkl, flags). Only the activation half of a switch is reported.
func sinkOnActivated(this *activationSink, _, _, _, _, _, _ uintptr, flags uintptr) uintptr {
	if uint32(flags)&tfIPSinkFlagActive != 0 && this.notify != nil {
		this.notify()
	}
	return sOK
}

// activeWatch holds the state of one running sink loop.
type activeWatch struct {
	threadID uint32
	doneCh   chan struct{}
}

type loopReady struct {
	threadID uint32
	err      error
}

// ActivationWatcher reports input-processor profile activations through the
// Text Services Framework. notify runs on the watcher's OS thread and must
// not block.
type ActivationWatcher struct {
	mu     sync.Mutex
	active *activeWatch
}

// NewActivationWatcher creates an idle watcher.
func NewActivationWatcher() *ActivationWatcher {
	return &ActivationWatcher{}
}

// Start registers the activation sink on a dedicated thread. A watch that is
// already running is stopped first.
func (w *ActivationWatcher) Start(notify func()) error {
	if notify == nil {
		return errors.New("notify callback is required")
	}
	if err := user32DLL.Load(); err != nil {
		return fmt.Errorf("user32.dll is unavailable: %w", err)
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	if err := w.stopLocked(); err != nil {
		return err
	}

	readyCh := make(chan loopReady, 1)
	doneCh := make(chan struct{})
	go runSinkLoop(notify, readyCh, doneCh)

	ready := <-readyCh
	if ready.err != nil {
		return fmt.Errorf("register profile activation sink: %w", ready.err)
	}
	w.active = &activeWatch{threadID: ready.threadID, doneCh: doneCh}
	return nil
}

// Stop unregisters the sink and waits for its thread to exit. Safe to call
// from any goroutine and when no watch is running.
func (w *ActivationWatcher) Stop() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.stopLocked()
}

func (w *ActivationWatcher) stopLocked() error {
	if w.active == nil {
		return nil
	}
	aw := w.active
	w.active = nil

	stopErr := postQuit(aw.threadID)

	timer := time.NewTimer(stopTimeout)
	defer timer.Stop()
	select {
	case <-aw.doneCh:
	case <-timer.C:
		slog.Warn("[DEBUG-TSF] sink loop stop timed out, thread may leak", "threadID", aw.threadID)
		stopErr = errors.Join(stopErr, fmt.Errorf("activation sink loop stop timed out (threadID=%d)", aw.threadID))
	}
	return stopErr
}

func runSinkLoop(notify func(), readyCh chan<- loopReady, doneCh chan struct{}) {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()
	defer close(doneCh)

	threadID := windows.GetCurrentThreadId()

	// PeekMessageW creates the thread queue so PostThreadMessageW from Stop
	// can deliver WM_QUIT.
	var qmsg winMsg
	procPeekMessageW.Call(uintptr(unsafe.Pointer(&qmsg)), 0, 0, 0, pmNoRemove)

	teardown, err := adviseActivationSink(notify)
	if err != nil {
		readyCh <- loopReady{err: err}
		return
	}
	defer teardown()

	readyCh <- loopReady{threadID: threadID}

	// COM delivers OnActivated through this thread's message queue.
	for {
		var msg winMsg
		ret, _, lastErr := procGetMessageW.Call(uintptr(unsafe.Pointer(&msg)), 0, 0, 0)
		switch int32(ret) {
		case -1:
			slog.Warn("[DEBUG-TSF] GetMessageW returned error, exiting loop", "error", lastErr)
			return
		case 0:
			slog.Debug("[DEBUG-TSF] sink loop received WM_QUIT")
			return
		}
		procTranslateMessage.Call(uintptr(unsafe.Pointer(&msg)))
		procDispatchMessageW.Call(uintptr(unsafe.Pointer(&msg)))
	}
}

// adviseActivationSink initializes COM on the calling thread, activates a
// TSF thread manager and advises a profile activation sink on it. The
// returned function undoes every step in reverse order.
func adviseActivationSink(notify func()) (func(), error) {
	var cleanups []func()
	unwind := func() {
		for i := len(cleanups) - 1; i >= 0; i-- {
			cleanups[i]()
		}
	}

	if err := ole.CoInitializeEx(0, ole.COINIT_APARTMENTTHREADED); err != nil {
		var oleErr *ole.OleError
		if !errors.As(err, &oleErr) || (oleErr.Code() != sFalse && oleErr.Code() != rpcEChangedMd) {
			return nil, fmt.Errorf("CoInitializeEx: %w", err)
		}
	}
	cleanups = append(cleanups, ole.CoUninitialize)

	threadMgr, err := ole.CreateInstance(clsidTFThreadMgr, iidITfThreadMgr)
	if err != nil {
		unwind()
		return nil, fmt.Errorf("create TSF thread manager: %w", err)
	}
	cleanups = append(cleanups, func() { threadMgr.Release() })

	var clientID uint32
	if hr := comCall(threadMgr, vtThreadMgrActivate, uintptr(unsafe.Pointer(&clientID))); failed(hr) {
		unwind()
		return nil, fmt.Errorf("ITfThreadMgr.Activate: %w", ole.NewError(hr))
	}
	cleanups = append(cleanups, func() { comCall(threadMgr, vtThreadMgrDeactivate) })

	disp, err := threadMgr.QueryInterface(iidITfSource)
	if err != nil {
		unwind()
		return nil, fmt.Errorf("query ITfSource: %w", err)
	}
	source := (*ole.IUnknown)(unsafe.Pointer(disp))
	cleanups = append(cleanups, func() { source.Release() })

	sink := &activationSink{vtbl: sharedSinkVtbl(), refs: 1, notify: notify}
	var cookie uint32
	hr := comCall(source, vtSourceAdviseSink,
		uintptr(unsafe.Pointer(iidActivationSink)),
		uintptr(unsafe.Pointer(sink)),
		uintptr(unsafe.Pointer(&cookie)),
	)
	if failed(hr) {
		unwind()
		return nil, fmt.Errorf("ITfSource.AdviseSink: %w", ole.NewError(hr))
	}
	cleanups = append(cleanups, func() {
		if hr := comCall(source, vtSourceUnadviseSink, uintptr(cookie)); failed(hr) {
			slog.Warn("[DEBUG-TSF] UnadviseSink failed", "hresult", fmt.Sprintf("0x%08x", uint32(hr)))
		}
		runtime.KeepAlive(sink)
	})

	slog.Debug("[DEBUG-TSF] profile activation sink advised", "cookie", cookie, "clientID", clientID)
	return unwind, nil
}

// comCall invokes vtable slot index on obj with the given arguments.
func comCall(obj *ole.IUnknown, index int, args ...uintptr) uintptr {
	vtbl := (*[8]uintptr)(unsafe.Pointer(obj.RawVTable))
	all := append([]uintptr{uintptr(unsafe.Pointer(obj))}, args...)
	hr, _, _ := syscall.SyscallN(vtbl[index], all...)
	return hr
}

func failed(hr uintptr) bool { return int32(uint32(hr)) < 0 }

func postQuit(threadID uint32) error {
	if threadID == 0 {
		return errors.New("cannot post WM_QUIT: threadID is 0")
	}
	res, _, err := procPostThreadMessageW.Call(uintptr(threadID), wmQuit, 0, 0)
	if res != 0 {
		return nil
	}
	return callErr("PostThreadMessageW", err)
}
