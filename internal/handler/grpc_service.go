// internal/handler/grpc_service.go
package handler

import (
	"context"

	"google.golang.org/grpc"
)

const ServiceName = "walletsync.v1.WalletSyncService"

// WalletSyncServer is the server API of walletsync.v1.WalletSyncService
type WalletSyncServer interface {
	GetCachedState(ctx context.Context, req *GetCachedStateRequest) (*GetCachedStateResponse, error)
	RefreshState(req *RefreshStateRequest, stream RefreshStateStream) error
	SendTransaction(ctx context.Context, req *SendTransactionRequest) (*SendTransactionResponse, error)
	ListWallets(ctx context.Context, req *ListWalletsRequest) (*ListWalletsResponse, error)
	ConfirmWalletExported(ctx context.Context, req *ConfirmWalletExportedRequest) (*ConfirmWalletExportedResponse, error)
	CreateWallet(ctx context.Context, req *CreateWalletRequest) (*CreateWalletResponse, error)
	ImportWallet(ctx context.Context, req *ImportWalletRequest) (*ImportWalletResponse, error)
	DeleteAllWallets(ctx context.Context, req *DeleteAllWalletsRequest) (*DeleteAllWalletsResponse, error)
	WalletRestoreWords(ctx context.Context, req *WalletRestoreWordsRequest) (*WalletRestoreWordsResponse, error)
}

// RefreshStateStream is the server side of the RefreshState stream
type RefreshStateStream interface {
	Send(*RefreshStateResponse) error
	Context() context.Context
}

// RegisterWalletSyncServer registers srv on s
func RegisterWalletSyncServer(s grpc.ServiceRegistrar, srv WalletSyncServer) {
	s.RegisterService(&WalletSyncServiceDesc, srv)
}

// WalletSyncServiceDesc describes the service for grpc.Server
var WalletSyncServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*WalletSyncServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "GetCachedState", Handler: getCachedStateHandler},
		{MethodName: "SendTransaction", Handler: sendTransactionHandler},
		{MethodName: "ListWallets", Handler: listWalletsHandler},
		{MethodName: "ConfirmWalletExported", Handler: confirmWalletExportedHandler},
		{MethodName: "CreateWallet", Handler: createWalletHandler},
		{MethodName: "ImportWallet", Handler: importWalletHandler},
		{MethodName: "DeleteAllWallets", Handler: deleteAllWalletsHandler},
		{MethodName: "WalletRestoreWords", Handler: walletRestoreWordsHandler},
	},
	Streams: []grpc.StreamDesc{
		{StreamName: "RefreshState", Handler: refreshStateHandler, ServerStreams: true},
	},
	Metadata: "walletsync/v1/walletsync.json",
}

func fullMethod(name string) string {
	return "/" + ServiceName + "/" + name
}

func getCachedStateHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(GetCachedStateRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(WalletSyncServer).GetCachedState(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod("GetCachedState")}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(WalletSyncServer).GetCachedState(ctx, req.(*GetCachedStateRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func sendTransactionHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(SendTransactionRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(WalletSyncServer).SendTransaction(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod("SendTransaction")}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(WalletSyncServer).SendTransaction(ctx, req.(*SendTransactionRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func listWalletsHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(ListWalletsRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(WalletSyncServer).ListWallets(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod("ListWallets")}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(WalletSyncServer).ListWallets(ctx, req.(*ListWalletsRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func confirmWalletExportedHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(ConfirmWalletExportedRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(WalletSyncServer).ConfirmWalletExported(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod("ConfirmWalletExported")}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(WalletSyncServer).ConfirmWalletExported(ctx, req.(*ConfirmWalletExportedRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func createWalletHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(CreateWalletRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(WalletSyncServer).CreateWallet(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod("CreateWallet")}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(WalletSyncServer).CreateWallet(ctx, req.(*CreateWalletRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func importWalletHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(ImportWalletRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(WalletSyncServer).ImportWallet(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod("ImportWallet")}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(WalletSyncServer).ImportWallet(ctx, req.(*ImportWalletRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func deleteAllWalletsHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(DeleteAllWalletsRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(WalletSyncServer).DeleteAllWallets(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod("DeleteAllWallets")}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(WalletSyncServer).DeleteAllWallets(ctx, req.(*DeleteAllWalletsRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func walletRestoreWordsHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(WalletRestoreWordsRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(WalletSyncServer).WalletRestoreWords(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod("WalletRestoreWords")}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(WalletSyncServer).WalletRestoreWords(ctx, req.(*WalletRestoreWordsRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func refreshStateHandler(srv interface{}, stream grpc.ServerStream) error {
	in := new(RefreshStateRequest)
	if err := stream.RecvMsg(in); err != nil {
		return err
	}
	return srv.(WalletSyncServer).RefreshState(in, &refreshStateServer{stream})
}

type refreshStateServer struct {
	grpc.ServerStream
}

func (s *refreshStateServer) Send(m *RefreshStateResponse) error {
	return s.ServerStream.SendMsg(m)
}

// ============================================================================
// CLIENT
// ============================================================================

// WalletSyncClient is a typed client for walletsync.v1.WalletSyncService
type WalletSyncClient struct {
	cc grpc.ClientConnInterface
}

func NewWalletSyncClient(cc grpc.ClientConnInterface) *WalletSyncClient {
	return &WalletSyncClient{cc: cc}
}

func (c *WalletSyncClient) GetCachedState(ctx context.Context, in *GetCachedStateRequest, opts ...grpc.CallOption) (*GetCachedStateResponse, error) {
	out := new(GetCachedStateResponse)
	if err := c.cc.Invoke(ctx, fullMethod("GetCachedState"), in, out, c.callOptions(opts)...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *WalletSyncClient) SendTransaction(ctx context.Context, in *SendTransactionRequest, opts ...grpc.CallOption) (*SendTransactionResponse, error) {
	out := new(SendTransactionResponse)
	if err := c.cc.Invoke(ctx, fullMethod("SendTransaction"), in, out, c.callOptions(opts)...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *WalletSyncClient) ListWallets(ctx context.Context, in *ListWalletsRequest, opts ...grpc.CallOption) (*ListWalletsResponse, error) {
	out := new(ListWalletsResponse)
	if err := c.cc.Invoke(ctx, fullMethod("ListWallets"), in, out, c.callOptions(opts)...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *WalletSyncClient) ConfirmWalletExported(ctx context.Context, in *ConfirmWalletExportedRequest, opts ...grpc.CallOption) (*ConfirmWalletExportedResponse, error) {
	out := new(ConfirmWalletExportedResponse)
	if err := c.cc.Invoke(ctx, fullMethod("ConfirmWalletExported"), in, out, c.callOptions(opts)...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *WalletSyncClient) CreateWallet(ctx context.Context, in *CreateWalletRequest, opts ...grpc.CallOption) (*CreateWalletResponse, error) {
	out := new(CreateWalletResponse)
	if err := c.cc.Invoke(ctx, fullMethod("CreateWallet"), in, out, c.callOptions(opts)...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *WalletSyncClient) ImportWallet(ctx context.Context, in *ImportWalletRequest, opts ...grpc.CallOption) (*ImportWalletResponse, error) {
	out := new(ImportWalletResponse)
	if err := c.cc.Invoke(ctx, fullMethod("ImportWallet"), in, out, c.callOptions(opts)...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *WalletSyncClient) DeleteAllWallets(ctx context.Context, in *DeleteAllWalletsRequest, opts ...grpc.CallOption) (*DeleteAllWalletsResponse, error) {
	out := new(DeleteAllWalletsResponse)
	if err := c.cc.Invoke(ctx, fullMethod("DeleteAllWallets"), in, out, c.callOptions(opts)...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *WalletSyncClient) WalletRestoreWords(ctx context.Context, in *WalletRestoreWordsRequest, opts ...grpc.CallOption) (*WalletRestoreWordsResponse, error) {
	out := new(WalletRestoreWordsResponse)
	if err := c.cc.Invoke(ctx, fullMethod("WalletRestoreWords"), in, out, c.callOptions(opts)...); err != nil {
		return nil, err
	}
	return out, nil
}

// RefreshState opens the stream; call Recv until io.EOF
func (c *WalletSyncClient) RefreshState(ctx context.Context, in *RefreshStateRequest, opts ...grpc.CallOption) (*RefreshStateClient, error) {
	stream, err := c.cc.NewStream(ctx, &WalletSyncServiceDesc.Streams[0], fullMethod("RefreshState"), c.callOptions(opts)...)
	if err != nil {
		return nil, err
	}
	if err := stream.SendMsg(in); err != nil {
		return nil, err
	}
	if err := stream.CloseSend(); err != nil {
		return nil, err
	}
	return &RefreshStateClient{stream}, nil
}

func (c *WalletSyncClient) callOptions(opts []grpc.CallOption) []grpc.CallOption {
	return append([]grpc.CallOption{grpc.CallContentSubtype(CodecName)}, opts...)
}

// RefreshStateClient reads RefreshState results
type RefreshStateClient struct {
	grpc.ClientStream
}

func (x *RefreshStateClient) Recv() (*RefreshStateResponse, error) {
	m := new(RefreshStateResponse)
	if err := x.ClientStream.RecvMsg(m); err != nil {
		return nil, err
	}
	return m, nil
}
